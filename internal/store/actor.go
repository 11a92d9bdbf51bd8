package store

import (
	"log"
	"time"

	"community-feed/internal/models"
	"community-feed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// DefaultPageLimit is the page size used when none is configured.
const DefaultPageLimit = 10

// Transition messages for the feed store. Every store operation issues a
// start transition synchronously, then exactly one of success/failure once
// the backend call resolves. The actor applies them one at a time, so a
// transition never observes a half-applied peer; when two responses for the
// same record resolve out of order, the later transition wins wholesale.
type (
	PostsLoadingMsg struct{}

	PostsLoadedMsg struct {
		Posts     []models.Post
		Page      int
		Limit     int
		Append    bool
		FetchedAt time.Time
	}

	PostsFailedMsg struct {
		Message string
	}

	PostLoadingMsg struct{}

	PostLoadedMsg struct {
		Post models.Post
	}

	PostFailedMsg struct {
		Message string
	}

	CreatingPostMsg struct{}

	PostCreatedMsg struct {
		Post models.Post
	}

	CreatePostFailedMsg struct {
		Message string
	}

	// Whole-record replacement after a counter update (like toggle or view
	// increment) confirmed by the backend.
	PostUpdatedMsg struct {
		Post models.Post
	}

	PostDeletedMsg struct {
		PostID string
	}

	CommentsLoadingMsg struct{}

	CommentsLoadedMsg struct {
		Comments []models.Comment
	}

	CommentsFailedMsg struct {
		Message string
	}

	CommentCreatedMsg struct {
		Comment models.Comment
	}

	CommentDeletedMsg struct {
		CommentID string
	}

	ClearCurrentPostMsg struct{}

	ResetPostsMsg struct{}

	GetSnapshotMsg struct{}
)

// Snapshot is a copy of the feed store state at one point in time. Mutating
// a snapshot never affects the store.
type Snapshot struct {
	Posts       []models.Post
	CurrentPost *models.Post
	Comments    []models.Comment

	FeedLoading bool
	FeedError   string

	DetailLoading bool
	DetailError   string

	CreateLoading bool
	CreateError   string

	CommentsLoading bool
	CommentsError   string

	Pagination models.Pagination
	LastFetch  time.Time
}

// Stale reports whether the last successful feed fetch is older than the
// given window. Consumers use it to decide whether to refetch on view entry.
func (s Snapshot) Stale(window time.Duration) bool {
	if s.LastFetch.IsZero() {
		return true
	}
	return time.Since(s.LastFetch) > window
}

// FindPost returns the feed post with the given id, if present.
func (s Snapshot) FindPost(id string) (models.Post, bool) {
	for _, post := range s.Posts {
		if post.ID == id {
			return post, true
		}
	}
	return models.Post{}, false
}

// FeedStoreActor owns the entire feed state. All mutations go through
// Receive, one message at a time.
type FeedStoreActor struct {
	state   Snapshot
	metrics *utils.MetricsCollector
}

func NewFeedStoreActor(metrics *utils.MetricsCollector) actor.Actor {
	return &FeedStoreActor{
		state: Snapshot{
			Pagination: models.Pagination{Page: 1, Limit: DefaultPageLimit},
		},
		metrics: metrics,
	}
}

func (a *FeedStoreActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("FeedStoreActor started")

	case *actor.Stopping:
		log.Printf("FeedStoreActor stopping")

	case *actor.Stopped:
		log.Printf("FeedStoreActor stopped")

	case *PostsLoadingMsg:
		a.state.FeedLoading = true
		a.state.FeedError = ""

	case *PostsLoadedMsg:
		a.handlePostsLoaded(msg)

	case *PostsFailedMsg:
		a.state.FeedLoading = false
		a.state.FeedError = msg.Message

	case *PostLoadingMsg:
		a.state.DetailLoading = true
		a.state.DetailError = ""

	case *PostLoadedMsg:
		a.state.DetailLoading = false
		post := msg.Post
		a.state.CurrentPost = &post

	case *PostFailedMsg:
		a.state.DetailLoading = false
		a.state.DetailError = msg.Message

	case *CreatingPostMsg:
		a.state.CreateLoading = true
		a.state.CreateError = ""

	case *PostCreatedMsg:
		a.state.CreateLoading = false
		a.state.Posts = append([]models.Post{msg.Post}, a.state.Posts...)
		a.state.Pagination.Total = len(a.state.Posts)

	case *CreatePostFailedMsg:
		a.state.CreateLoading = false
		a.state.CreateError = msg.Message

	case *PostUpdatedMsg:
		a.replacePostByID(msg.Post)

	case *PostDeletedMsg:
		a.handlePostDeleted(msg.PostID)

	case *CommentsLoadingMsg:
		a.state.CommentsLoading = true
		a.state.CommentsError = ""

	case *CommentsLoadedMsg:
		a.state.CommentsLoading = false
		a.state.Comments = msg.Comments

	case *CommentsFailedMsg:
		a.state.CommentsLoading = false
		a.state.CommentsError = msg.Message

	case *CommentCreatedMsg:
		a.state.Comments = append([]models.Comment{msg.Comment}, a.state.Comments...)
		if a.state.CurrentPost != nil {
			a.state.CurrentPost.CommentCount++
		}

	case *CommentDeletedMsg:
		a.handleCommentDeleted(msg.CommentID)

	case *ClearCurrentPostMsg:
		a.state.CurrentPost = nil
		a.state.Comments = nil
		a.state.DetailLoading = false
		a.state.DetailError = ""
		a.state.CommentsLoading = false
		a.state.CommentsError = ""

	case *ResetPostsMsg:
		a.state.Posts = nil
		a.state.Pagination = models.Pagination{Page: 1, Limit: DefaultPageLimit}

	case *GetSnapshotMsg:
		start := time.Now()
		context.Respond(a.snapshot())
		a.metrics.AddOperationLatency("snapshot_copy", time.Since(start))

	default:
		log.Printf("FeedStoreActor: Unknown message type: %T", msg)
	}
}

func (a *FeedStoreActor) handlePostsLoaded(msg *PostsLoadedMsg) {
	a.state.FeedLoading = false
	if msg.Append {
		a.state.Posts = append(a.state.Posts, msg.Posts...)
	} else {
		a.state.Posts = msg.Posts
	}

	a.state.Pagination = models.Pagination{
		Page:    msg.Page,
		Limit:   msg.Limit,
		Total:   len(a.state.Posts),
		HasMore: msg.Limit > 0 && len(msg.Posts) == msg.Limit,
	}
	a.state.LastFetch = msg.FetchedAt
}

// replacePostByID swaps the matching post in the feed list and, when the id
// matches, the currently viewed post. Both views of a record must stay
// consistent.
func (a *FeedStoreActor) replacePostByID(post models.Post) {
	for i := range a.state.Posts {
		if a.state.Posts[i].ID == post.ID {
			a.state.Posts[i] = post
			break
		}
	}
	if a.state.CurrentPost != nil && a.state.CurrentPost.ID == post.ID {
		replacement := post
		a.state.CurrentPost = &replacement
	}
}

func (a *FeedStoreActor) handlePostDeleted(postID string) {
	remaining := make([]models.Post, 0, len(a.state.Posts))
	for _, post := range a.state.Posts {
		if post.ID != postID {
			remaining = append(remaining, post)
		}
	}
	a.state.Posts = remaining
	a.state.Pagination.Total = len(a.state.Posts)

	if a.state.CurrentPost != nil && a.state.CurrentPost.ID == postID {
		a.state.CurrentPost = nil
	}
}

func (a *FeedStoreActor) handleCommentDeleted(commentID string) {
	remaining := make([]models.Comment, 0, len(a.state.Comments))
	for _, comment := range a.state.Comments {
		if comment.ID != commentID {
			remaining = append(remaining, comment)
		}
	}
	a.state.Comments = remaining

	if a.state.CurrentPost != nil && a.state.CurrentPost.CommentCount > 0 {
		a.state.CurrentPost.CommentCount--
	}
}

// snapshot copies the state so readers can never observe later mutations.
func (a *FeedStoreActor) snapshot() Snapshot {
	snap := a.state

	snap.Posts = make([]models.Post, len(a.state.Posts))
	copy(snap.Posts, a.state.Posts)

	snap.Comments = make([]models.Comment, len(a.state.Comments))
	copy(snap.Comments, a.state.Comments)

	if a.state.CurrentPost != nil {
		current := *a.state.CurrentPost
		snap.CurrentPost = &current
	}

	return snap
}
