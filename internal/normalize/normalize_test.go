package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"community-feed/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticResolver mimics the transport media resolver without a client.
type staticResolver struct {
	base string
}

func (r staticResolver) ResolveMediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return r.base + "/" + strings.TrimLeft(ref, "/")
}

func TestPostWithEmbeddedAccount(t *testing.T) {
	norm := New(staticResolver{base: "http://api.test"})

	raw := transport.RawPost{
		ID:      "64f000000000000000000001",
		Content: "hello swamp",
		Image:   "uploads/pic.jpg",
		Star:    4,
		View:    17,
		Comment: 2,
		Account: transport.RawAccount{
			ID:       "64f0000000000000000000aa",
			Username: "janeq",
			Avatar:   "uploads/jane.png",
			FullName: "Jane Q Public",
		},
		CreatedAt: "2025-01-02T03:04:05Z",
	}

	post := norm.Post(raw)

	assert.Equal(t, "64f000000000000000000001", post.ID)
	assert.Equal(t, "http://api.test/uploads/pic.jpg", post.Image)
	assert.Equal(t, 4, post.Likes)
	assert.Equal(t, 17, post.Views)
	assert.Equal(t, 2, post.CommentCount)
	assert.Equal(t, "Jane", post.Author.FirstName)
	assert.Equal(t, "Q Public", post.Author.LastName)
	assert.Equal(t, "janeq", post.Author.Username)
	assert.Equal(t, "http://api.test/uploads/jane.png", post.Author.Avatar)
}

func TestAuthorFallsBackToUsername(t *testing.T) {
	norm := New(staticResolver{base: "http://api.test"})

	post := norm.Post(transport.RawPost{
		ID: "p1",
		Account: transport.RawAccount{
			ID:       "a1",
			Username: "gator",
		},
	})

	assert.Equal(t, "gator", post.Author.FirstName)
	assert.Empty(t, post.Author.LastName)
}

func TestSingleTokenFullName(t *testing.T) {
	norm := New(staticResolver{})

	post := norm.Post(transport.RawPost{
		Account: transport.RawAccount{Username: "prince", FullName: "Madonna"},
	})

	assert.Equal(t, "Madonna", post.Author.FirstName)
	assert.Empty(t, post.Author.LastName)
}

func TestBareAccountIDDoesNotFail(t *testing.T) {
	norm := New(staticResolver{})

	// account_id as a bare id string, counters absent
	var raw transport.RawPost
	err := json.Unmarshal([]byte(`{"_id":"p1","content":"hi","account_id":"64f0000000000000000000bb"}`), &raw)
	require.NoError(t, err)

	post := norm.Post(raw)

	assert.Equal(t, "64f0000000000000000000bb", post.Author.ID)
	assert.Empty(t, post.Author.Username)
	assert.Empty(t, post.Author.Avatar)
	assert.Equal(t, 0, post.Likes)
	assert.Equal(t, 0, post.Views)
	assert.Equal(t, 0, post.CommentCount)
}

func TestEmbeddedAccountDecodes(t *testing.T) {
	var raw transport.RawPost
	err := json.Unmarshal([]byte(`{
		"_id":"p2",
		"account_id":{"_id":"a2","username":"croc","full_name":"Cranky Crocodile","avatar":"uploads/croc.png"},
		"star":9
	}`), &raw)
	require.NoError(t, err)

	assert.Equal(t, "a2", raw.Account.ID)
	assert.Equal(t, "croc", raw.Account.Username)
	assert.Equal(t, "Cranky Crocodile", raw.Account.FullName)
	assert.Equal(t, 9, raw.Star)
}

func TestNegativeCountersClampToZero(t *testing.T) {
	norm := New(staticResolver{})

	post := norm.Post(transport.RawPost{Star: -3, View: -1})

	assert.Equal(t, 0, post.Likes)
	assert.Equal(t, 0, post.Views)
}

func TestCommentNormalization(t *testing.T) {
	norm := New(staticResolver{base: "http://api.test"})

	comment := norm.Comment(transport.RawComment{
		ID:      "c1",
		PostID:  "p1",
		Content: "nice",
		Image:   "uploads/c.jpg",
		Account: transport.RawAccount{ID: "a1", Username: "gator"},
	})

	assert.Equal(t, "c1", comment.ID)
	assert.Equal(t, "p1", comment.PostID)
	assert.Equal(t, "http://api.test/uploads/c.jpg", comment.Image)
	assert.Equal(t, "gator", comment.Author.Username)
}

func TestAbsoluteMediaPassesThrough(t *testing.T) {
	norm := New(staticResolver{base: "http://api.test"})

	post := norm.Post(transport.RawPost{Image: "https://cdn.example.com/x.jpg"})

	assert.Equal(t, "https://cdn.example.com/x.jpg", post.Image)
}

func TestPostsPreserveOrder(t *testing.T) {
	norm := New(staticResolver{})

	posts := norm.Posts([]transport.RawPost{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}})

	require.Len(t, posts, 3)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "p3", posts[2].ID)
}
