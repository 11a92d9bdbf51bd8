package models

// Comment belongs to exactly one post. The store only ever holds the comments
// of the currently viewed post, so PostID is informational rather than a key.
type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	Author    Author `json:"author"`
	CreatedAt string `json:"createdAt,omitempty"`
}
