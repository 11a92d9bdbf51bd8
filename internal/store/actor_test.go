package store

import (
	"testing"
	"time"

	"community-feed/internal/models"
	"community-feed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnStoreActor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedStoreActor(utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func snapshotOf(t *testing.T, system *actor.ActorSystem, pid *actor.PID) Snapshot {
	t.Helper()
	future := system.Root.RequestFuture(pid, &GetSnapshotMsg{}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result.(Snapshot)
}

func somePosts(ids ...string) []models.Post {
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, models.Post{ID: id, Content: "content " + id})
	}
	return posts
}

func TestReplaceThenAppend(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadingMsg{})
	system.Root.Send(pid, &PostsLoadedMsg{
		Posts: somePosts("p1", "p2", "p3"), Page: 1, Limit: 3, FetchedAt: time.Now(),
	})

	snap := snapshotOf(t, system, pid)
	require.Len(t, snap.Posts, 3)
	assert.True(t, snap.Pagination.HasMore)
	assert.False(t, snap.FeedLoading)

	// Append mode concatenates, preserving order
	system.Root.Send(pid, &PostsLoadedMsg{
		Posts: somePosts("p4", "p5"), Page: 2, Limit: 3, Append: true, FetchedAt: time.Now(),
	})

	snap = snapshotOf(t, system, pid)
	require.Len(t, snap.Posts, 5)
	assert.Equal(t, "p1", snap.Posts[0].ID)
	assert.Equal(t, "p5", snap.Posts[4].ID)
	assert.Equal(t, 2, snap.Pagination.Page)
	// Short page means the feed is exhausted
	assert.False(t, snap.Pagination.HasMore)

	// Replace mode discards everything fetched before
	system.Root.Send(pid, &PostsLoadedMsg{
		Posts: somePosts("p6"), Page: 1, Limit: 3, FetchedAt: time.Now(),
	})

	snap = snapshotOf(t, system, pid)
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "p6", snap.Posts[0].ID)
}

func TestLoadingClearsError(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadingMsg{})
	system.Root.Send(pid, &PostsFailedMsg{Message: "backend unreachable"})

	snap := snapshotOf(t, system, pid)
	assert.Equal(t, "backend unreachable", snap.FeedError)
	assert.False(t, snap.FeedLoading)

	system.Root.Send(pid, &PostsLoadingMsg{})

	snap = snapshotOf(t, system, pid)
	assert.Empty(t, snap.FeedError)
	assert.True(t, snap.FeedLoading)
}

func TestUpdateTouchesListAndCurrentPost(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadedMsg{Posts: somePosts("p1", "p2"), Page: 1, Limit: 10, FetchedAt: time.Now()})
	system.Root.Send(pid, &PostLoadedMsg{Post: models.Post{ID: "p2", Likes: 1}})

	system.Root.Send(pid, &PostUpdatedMsg{Post: models.Post{ID: "p2", Likes: 8, Views: 3}})

	snap := snapshotOf(t, system, pid)
	updated, found := snap.FindPost("p2")
	require.True(t, found)
	assert.Equal(t, 8, updated.Likes)
	require.NotNil(t, snap.CurrentPost)
	assert.Equal(t, 8, snap.CurrentPost.Likes)
	assert.Equal(t, 3, snap.CurrentPost.Views)
}

func TestCommentCountNeverGoesNegative(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostLoadedMsg{Post: models.Post{ID: "p1", CommentCount: 0}})
	system.Root.Send(pid, &CommentDeletedMsg{CommentID: "c1"})

	snap := snapshotOf(t, system, pid)
	require.NotNil(t, snap.CurrentPost)
	assert.Equal(t, 0, snap.CurrentPost.CommentCount)
}

func TestCommentCreateAndDelete(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostLoadedMsg{Post: models.Post{ID: "p1", CommentCount: 1}})
	system.Root.Send(pid, &CommentsLoadedMsg{Comments: []models.Comment{{ID: "c1", PostID: "p1"}}})
	system.Root.Send(pid, &CommentCreatedMsg{Comment: models.Comment{ID: "c2", PostID: "p1"}})

	snap := snapshotOf(t, system, pid)
	require.Len(t, snap.Comments, 2)
	// New comments go on top
	assert.Equal(t, "c2", snap.Comments[0].ID)
	assert.Equal(t, 2, snap.CurrentPost.CommentCount)

	system.Root.Send(pid, &CommentDeletedMsg{CommentID: "c1"})

	snap = snapshotOf(t, system, pid)
	require.Len(t, snap.Comments, 1)
	assert.Equal(t, "c2", snap.Comments[0].ID)
	assert.Equal(t, 1, snap.CurrentPost.CommentCount)
}

func TestClearCurrentPostIsIdempotent(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostLoadedMsg{Post: models.Post{ID: "p1"}})
	system.Root.Send(pid, &CommentsLoadedMsg{Comments: []models.Comment{{ID: "c1"}}})

	system.Root.Send(pid, &ClearCurrentPostMsg{})
	first := snapshotOf(t, system, pid)

	system.Root.Send(pid, &ClearCurrentPostMsg{})
	second := snapshotOf(t, system, pid)

	assert.Nil(t, first.CurrentPost)
	assert.Empty(t, first.Comments)
	assert.Equal(t, first, second)
}

func TestDeletePostClearsMatchingCurrent(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadedMsg{Posts: somePosts("p1", "p2", "p3"), Page: 1, Limit: 10, FetchedAt: time.Now()})
	system.Root.Send(pid, &PostLoadedMsg{Post: models.Post{ID: "p2"}})

	system.Root.Send(pid, &PostDeletedMsg{PostID: "p2"})

	snap := snapshotOf(t, system, pid)
	require.Len(t, snap.Posts, 2)
	_, found := snap.FindPost("p2")
	assert.False(t, found)
	assert.Nil(t, snap.CurrentPost)
}

func TestResetPosts(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadedMsg{Posts: somePosts("p1", "p2"), Page: 3, Limit: 2, FetchedAt: time.Now()})
	system.Root.Send(pid, &ResetPostsMsg{})

	snap := snapshotOf(t, system, pid)
	assert.Empty(t, snap.Posts)
	assert.Equal(t, models.Pagination{Page: 1, Limit: DefaultPageLimit}, snap.Pagination)
}

func TestSnapshotRecordsCopyLatency(t *testing.T) {
	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedStoreActor(metrics)
	})
	pid := system.Root.Spawn(props)

	future := system.Root.RequestFuture(pid, &GetSnapshotMsg{}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	assert.Contains(t, metrics.Snapshot().AverageLatencies, "snapshot_copy")
}

func TestSnapshotIsACopy(t *testing.T) {
	system, pid := spawnStoreActor(t)

	system.Root.Send(pid, &PostsLoadedMsg{Posts: somePosts("p1"), Page: 1, Limit: 10, FetchedAt: time.Now()})

	snap := snapshotOf(t, system, pid)
	snap.Posts[0].Likes = 999

	fresh := snapshotOf(t, system, pid)
	assert.Equal(t, 0, fresh.Posts[0].Likes)
}
