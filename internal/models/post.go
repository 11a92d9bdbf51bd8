package models

// Author is the normalized identity attached to posts and comments. It is
// derived either from an embedded account object or from a bare account id,
// so every field except ID may be empty.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// Post is the frontend-facing view of a backend post record. Counters are
// always non-negative and default to 0. Timestamps are kept as the opaque
// strings the backend sent.
type Post struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	Image        string `json:"image,omitempty"`
	Author       Author `json:"author"`
	Likes        int    `json:"likes"`
	Views        int    `json:"views"`
	CommentCount int    `json:"commentCount"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}
