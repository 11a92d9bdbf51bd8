package mockapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"community-feed/internal/config"
	"community-feed/internal/session"
	"community-feed/internal/transport"
	"community-feed/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The mock backend is exercised through the real transport client, so these
// tests double as an end-to-end check of the wire contract.
func newBackendAndClient(t *testing.T) (*Server, *transport.Client) {
	t.Helper()
	backend := NewServer()
	httpServer := httptest.NewServer(backend.Handler())
	t.Cleanup(httpServer.Close)

	client := transport.NewClient(&config.ClientConfig{
		BaseURL:        httpServer.URL,
		RequestTimeout: 5 * time.Second,
	}, utils.NewMetricsCollector())
	return backend, client
}

func TestSeedAndPagination(t *testing.T) {
	backend, client := newBackendAndClient(t)
	backend.Seed(3, 25)

	first, err := client.ListPosts(context.Background(), transport.ListPostsOptions{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, first, 10)

	last, err := client.ListPosts(context.Background(), transport.ListPostsOptions{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, last, 5)

	beyond, err := client.ListPosts(context.Background(), transport.ListPostsOptions{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestCreatePostGoesOnTop(t *testing.T) {
	backend, client := newBackendAndClient(t)
	backend.Seed(1, 3)
	accountID := backend.RegisterAccount("gator", "Gator Green", "")

	created, err := client.CreatePost(context.Background(), transport.CreatePostInput{
		Content:   "fresh from the swamp",
		AccountID: accountID,
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh from the swamp", created.Content)
	assert.Equal(t, accountID, created.Account.ID)

	posts, err := client.ListPosts(context.Background(), transport.ListPostsOptions{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, created.ID, posts[0].ID)
}

func TestListPostsFiltersByAccount(t *testing.T) {
	backend, client := newBackendAndClient(t)
	alice := backend.RegisterAccount("alice", "Alice A", "")
	bob := backend.RegisterAccount("bob", "Bob B", "")

	for i := 0; i < 3; i++ {
		_, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "by alice", AccountID: alice})
		require.NoError(t, err)
	}
	_, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "by bob", AccountID: bob})
	require.NoError(t, err)

	posts, err := client.ListPosts(context.Background(), transport.ListPostsOptions{Page: 1, Limit: 10, AccountID: alice})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	for _, post := range posts {
		assert.Equal(t, alice, post.Account.ID)
	}
}

func TestStarDeltaFlooredAtZero(t *testing.T) {
	backend, client := newBackendAndClient(t)
	accountID := backend.RegisterAccount("gator", "", "")

	post, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "like me", AccountID: accountID})
	require.NoError(t, err)
	require.Equal(t, 0, post.Star)

	liked, err := client.UpdatePost(context.Background(), post.ID, transport.PostDelta{Star: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Star)

	// Unliking twice must not push the counter below zero
	unliked, err := client.UpdatePost(context.Background(), post.ID, transport.PostDelta{Star: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Star)

	unliked, err = client.UpdatePost(context.Background(), post.ID, transport.PostDelta{Star: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Star)
}

func TestCommentLifecycleKeepsPostCounter(t *testing.T) {
	backend, client := newBackendAndClient(t)
	accountID := backend.RegisterAccount("gator", "", "")

	post, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "discuss", AccountID: accountID})
	require.NoError(t, err)

	comment, err := client.CreateComment(context.Background(), transport.CreateCommentInput{
		Content:   "first!",
		PostID:    post.ID,
		AccountID: accountID,
	})
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)

	refetched, err := client.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refetched.Comment)

	comments, err := client.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	require.NoError(t, client.DeleteComment(context.Background(), comment.ID))

	refetched, err = client.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, refetched.Comment)
}

func TestDeletePostCascadesComments(t *testing.T) {
	backend, client := newBackendAndClient(t)
	accountID := backend.RegisterAccount("gator", "", "")

	post, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "short lived", AccountID: accountID})
	require.NoError(t, err)
	_, err = client.CreateComment(context.Background(), transport.CreateCommentInput{
		Content: "gone soon", PostID: post.ID, AccountID: accountID,
	})
	require.NoError(t, err)

	require.NoError(t, client.DeletePost(context.Background(), post.ID))

	_, err = client.GetPost(context.Background(), post.ID)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	comments, err := client.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestContentValidation(t *testing.T) {
	backend, client := newBackendAndClient(t)
	accountID := backend.RegisterAccount("gator", "", "")

	_, err := client.CreatePost(context.Background(), transport.CreatePostInput{Content: "", AccountID: accountID})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrBadStatus))

	long := make([]byte, maxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = client.CreatePost(context.Background(), transport.CreatePostInput{Content: string(long), AccountID: accountID})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrBadStatus))
}

func TestIssuedTokenRoundTripsThroughSession(t *testing.T) {
	backend, _ := newBackendAndClient(t)
	accountID := backend.RegisterAccount("janeq", "Jane Q Public", "")

	token, err := backend.IssueToken(accountID)
	require.NoError(t, err)

	user, err := session.FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, user.AccountID)
	assert.Equal(t, "janeq", user.Username)
}

func TestIssueTokenUnknownAccount(t *testing.T) {
	backend, _ := newBackendAndClient(t)

	_, err := backend.IssueToken("missing")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}
