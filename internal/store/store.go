// Package store holds the client-side cache of the community feed: the post
// list, the currently viewed post and its comments, per-operation loading
// and error flags, and the pagination cursor. A single actor owns the state;
// operations talk to the backend and feed the result to the actor as
// transition messages.
package store

import (
	"context"
	"log"
	"time"

	"community-feed/internal/models"
	"community-feed/internal/normalize"
	"community-feed/internal/transport"
	"community-feed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Backend is the slice of the transport client the store depends on.
// Implemented by *transport.Client.
type Backend interface {
	ListPosts(ctx context.Context, opts transport.ListPostsOptions) ([]transport.RawPost, error)
	GetPost(ctx context.Context, id string) (*transport.RawPost, error)
	CreatePost(ctx context.Context, input transport.CreatePostInput) (*transport.RawPost, error)
	UpdatePost(ctx context.Context, id string, delta transport.PostDelta) (*transport.RawPost, error)
	DeletePost(ctx context.Context, id string) error
	ListComments(ctx context.Context, postID string) ([]transport.RawComment, error)
	CreateComment(ctx context.Context, input transport.CreateCommentInput) (*transport.RawComment, error)
	DeleteComment(ctx context.Context, id string) error
}

// FeedStore is the operation surface exposed to UI collaborators. One store
// lives per session: create it when the community view mounts, Stop it on
// unmount. Operations are safe to call from multiple goroutines; the actor
// serializes all state transitions.
type FeedStore struct {
	system  *actor.ActorSystem
	root    *actor.RootContext
	pid     *actor.PID
	backend Backend
	norm    *normalize.Normalizer
	metrics *utils.MetricsCollector
	timeout time.Duration
}

func NewFeedStore(system *actor.ActorSystem, backend Backend, norm *normalize.Normalizer, metrics *utils.MetricsCollector) *FeedStore {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedStoreActor(metrics)
	})
	pid := system.Root.Spawn(props)

	return &FeedStore{
		system:  system,
		root:    system.Root,
		pid:     pid,
		backend: backend,
		norm:    norm,
		metrics: metrics,
		timeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// Stop disposes the store state. The session is over after this.
func (s *FeedStore) Stop() {
	s.root.Stop(s.pid)
}

// Snapshot reads the latest state straight from the actor. Operations that
// depend on current state (like LoadMorePosts) go through here rather than
// any captured copy, so a stale caller can never bypass the loading gate.
func (s *FeedStore) Snapshot() (Snapshot, error) {
	future := s.root.RequestFuture(s.pid, &GetSnapshotMsg{}, s.timeout)
	result, err := future.Result()
	if err != nil {
		return Snapshot{}, utils.NewActorTimeoutError("FeedStoreActor")
	}
	return result.(Snapshot), nil
}

// FetchOptions configures a feed fetch.
type FetchOptions struct {
	Page      int
	Limit     int
	Append    bool
	AccountID string // equality filter on author identity, empty for all
}

// FetchPosts loads one page of the feed. With Append the page is
// concatenated onto the existing list, otherwise it replaces it. The fetch
// error lands in the feed error slice for the UI to render inline.
func (s *FeedStore) FetchPosts(ctx context.Context, opts FetchOptions) error {
	startTime := time.Now()

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	s.root.Send(s.pid, &PostsLoadingMsg{})

	raw, err := s.backend.ListPosts(ctx, transport.ListPostsOptions{
		Page:      page,
		Limit:     limit,
		AccountID: opts.AccountID,
	})
	if err != nil {
		s.root.Send(s.pid, &PostsFailedMsg{Message: err.Error()})
		return err
	}

	s.root.Send(s.pid, &PostsLoadedMsg{
		Posts:     s.norm.Posts(raw),
		Page:      page,
		Limit:     limit,
		Append:    opts.Append,
		FetchedAt: time.Now(),
	})

	s.metrics.AddOperationLatency("fetch_posts", time.Since(startTime))
	return nil
}

// FetchPostsByUser loads the feed filtered to a single author.
func (s *FeedStore) FetchPostsByUser(ctx context.Context, accountID string, opts FetchOptions) error {
	opts.AccountID = accountID
	return s.FetchPosts(ctx, opts)
}

// LoadMorePosts fetches the next page in append mode. It is a no-op unless
// the feed is idle and the last page came back full; the gate is checked
// against a fresh snapshot, never a stale capture. Returns whether a fetch
// was issued.
func (s *FeedStore) LoadMorePosts(ctx context.Context, accountID string) (bool, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return false, err
	}

	if snap.FeedLoading || !snap.Pagination.HasMore {
		return false, nil
	}

	limit := snap.Pagination.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	return true, s.FetchPosts(ctx, FetchOptions{
		Page:      snap.Pagination.Page + 1,
		Limit:     limit,
		Append:    true,
		AccountID: accountID,
	})
}

// FetchPostByID loads a single post into the current-post slot.
func (s *FeedStore) FetchPostByID(ctx context.Context, id string) error {
	startTime := time.Now()

	s.root.Send(s.pid, &PostLoadingMsg{})

	raw, err := s.backend.GetPost(ctx, id)
	if err != nil {
		s.root.Send(s.pid, &PostFailedMsg{Message: err.Error()})
		return err
	}

	s.root.Send(s.pid, &PostLoadedMsg{Post: s.norm.Post(*raw)})
	s.metrics.AddOperationLatency("fetch_post", time.Since(startTime))
	return nil
}

// CreatePost publishes a new post and prepends it to the feed.
func (s *FeedStore) CreatePost(ctx context.Context, input transport.CreatePostInput) (*models.Post, error) {
	startTime := time.Now()

	s.root.Send(s.pid, &CreatingPostMsg{})

	raw, err := s.backend.CreatePost(ctx, input)
	if err != nil {
		s.root.Send(s.pid, &CreatePostFailedMsg{Message: err.Error()})
		return nil, err
	}

	post := s.norm.Post(*raw)
	s.root.Send(s.pid, &PostCreatedMsg{Post: post})
	s.metrics.AddOperationLatency("create_post", time.Since(startTime))
	return &post, nil
}

// ToggleLike flips the like state of a post by sending the backend a ±1 star
// delta. The confirmed record replaces the post wholesale in the feed and in
// the current-post slot. A failure is returned to the caller and leaves no
// trace in shared state; the triggering button shows it instead.
func (s *FeedStore) ToggleLike(ctx context.Context, id string, currentlyLiked bool) error {
	startTime := time.Now()

	delta := transport.PostDelta{Star: 1}
	if currentlyLiked {
		delta.Star = -1
	}

	raw, err := s.backend.UpdatePost(ctx, id, delta)
	if err != nil {
		return err
	}

	s.root.Send(s.pid, &PostUpdatedMsg{Post: s.norm.Post(*raw)})
	s.metrics.AddOperationLatency("toggle_like", time.Since(startTime))
	return nil
}

// IncrementView bumps a post's view counter. Failures are swallowed after
// logging: a missed view count must never block navigation to the detail
// page.
func (s *FeedStore) IncrementView(ctx context.Context, id string) {
	startTime := time.Now()

	raw, err := s.backend.UpdatePost(ctx, id, transport.PostDelta{View: 1})
	if err != nil {
		log.Printf("FeedStore: view increment for post %s failed: %v", id, err)
		return
	}

	s.root.Send(s.pid, &PostUpdatedMsg{Post: s.norm.Post(*raw)})
	s.metrics.AddOperationLatency("increment_view", time.Since(startTime))
}

// DeletePost removes a post from the backend and from the cache. Clears the
// current post when it was the one deleted.
func (s *FeedStore) DeletePost(ctx context.Context, id string) error {
	startTime := time.Now()

	if err := s.backend.DeletePost(ctx, id); err != nil {
		return err
	}

	s.root.Send(s.pid, &PostDeletedMsg{PostID: id})
	s.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	return nil
}

// FetchComments replaces the comment list with the comments of the given
// post. The store holds comments for one post at a time; switching posts
// goes through ClearCurrentPost first.
func (s *FeedStore) FetchComments(ctx context.Context, postID string) error {
	startTime := time.Now()

	s.root.Send(s.pid, &CommentsLoadingMsg{})

	raw, err := s.backend.ListComments(ctx, postID)
	if err != nil {
		s.root.Send(s.pid, &CommentsFailedMsg{Message: err.Error()})
		return err
	}

	s.root.Send(s.pid, &CommentsLoadedMsg{Comments: s.norm.Comments(raw)})
	s.metrics.AddOperationLatency("fetch_comments", time.Since(startTime))
	return nil
}

// CreateComment publishes a comment, prepends it to the comment list, and
// bumps the current post's comment counter when one is loaded.
func (s *FeedStore) CreateComment(ctx context.Context, input transport.CreateCommentInput) (*models.Comment, error) {
	startTime := time.Now()

	raw, err := s.backend.CreateComment(ctx, input)
	if err != nil {
		return nil, err
	}

	comment := s.norm.Comment(*raw)
	s.root.Send(s.pid, &CommentCreatedMsg{Comment: comment})
	s.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	return &comment, nil
}

// DeleteComment removes a comment and decrements the current post's comment
// counter, floored at zero.
func (s *FeedStore) DeleteComment(ctx context.Context, id string) error {
	startTime := time.Now()

	if err := s.backend.DeleteComment(ctx, id); err != nil {
		return err
	}

	s.root.Send(s.pid, &CommentDeletedMsg{CommentID: id})
	s.metrics.AddOperationLatency("delete_comment", time.Since(startTime))
	return nil
}

// ClearCurrentPost drops the detail view state: current post, comments, and
// their loading/error flags. Idempotent.
func (s *FeedStore) ClearCurrentPost() {
	s.root.Send(s.pid, &ClearCurrentPostMsg{})
}

// ResetPosts empties the feed and rewinds the pagination cursor.
func (s *FeedStore) ResetPosts() {
	s.root.Send(s.pid, &ResetPostsMsg{})
}
