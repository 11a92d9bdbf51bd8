package simulator

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"community-feed/internal/models"
	"community-feed/internal/store"
	"community-feed/internal/transport"

	"github.com/brianvoe/gofakeit/v6"
)

// SimulateActivities runs the browsing, engagement, and posting loops until
// the context ends.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	log.Printf("Starting activities simulation...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateBrowsing(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateEngagement(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosting(ctx)
	}()

	wg.Wait()
}

// simulateBrowsing refreshes feeds and paginates. Most readers refresh page
// one; readers who already have a feed sometimes reach the bottom and ask
// for more.
func (s *Simulator) simulateBrowsing(ctx context.Context) {
	tickInterval := 500 * time.Millisecond
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	const numWorkers = 5
	browseJobs := make(chan *SimulatedReader, s.config.NumReaders)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for reader := range browseJobs {
				if !reader.Connected() {
					continue
				}

				if rand.Float64() >= perTickChance(s.config.BrowseFrequency, tickInterval) {
					continue
				}

				snap, err := reader.Store.Snapshot()
				if err != nil {
					log.Printf("Worker %d: snapshot failed: %v", workerID, err)
					continue
				}

				start := time.Now()
				if len(snap.Posts) > 0 && snap.Pagination.HasMore && rand.Float64() < 0.4 {
					issued, err := reader.Store.LoadMorePosts(ctx, "")
					s.recordRequest(start, err)
					if err == nil && issued {
						s.stats.mu.Lock()
						s.stats.PagesAppended++
						s.stats.mu.Unlock()
					}
					continue
				}

				err = reader.Store.FetchPosts(ctx, store.FetchOptions{Page: 1, Limit: s.config.PageLimit})
				s.recordRequest(start, err)
				if err == nil {
					s.stats.mu.Lock()
					s.stats.FeedFetches++
					s.stats.mu.Unlock()
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(browseJobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, reader := range s.readers {
				if reader.Connected() {
					select {
					case browseJobs <- reader:
					default: // Don't block if channel is full
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

// simulateEngagement opens post details, likes, and comments.
func (s *Simulator) simulateEngagement(ctx context.Context) {
	tickInterval := 500 * time.Millisecond
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	const numWorkers = 5
	engageJobs := make(chan *SimulatedReader, s.config.NumReaders)
	faker := gofakeit.New(0)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for reader := range engageJobs {
				if !reader.Connected() {
					continue
				}

				if rand.Float64() < perTickChance(s.config.OpenFrequency, tickInterval) {
					s.openRandomPost(ctx, reader)
				}

				if rand.Float64() < perTickChance(s.config.LikeFrequency, tickInterval) {
					s.likeRandomPost(ctx, reader)
				}

				if rand.Float64() < perTickChance(s.config.CommentFrequency, tickInterval) {
					s.commentOnCurrentPost(ctx, reader, faker)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(engageJobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, reader := range s.readers {
				if reader.Connected() {
					select {
					case engageJobs <- reader:
					default:
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

// simulatePosting publishes new posts from random readers.
func (s *Simulator) simulatePosting(ctx context.Context) {
	tickInterval := time.Second
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	faker := gofakeit.New(0)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			readers := s.readers
			s.mu.RUnlock()

			for _, reader := range readers {
				if !reader.Connected() {
					continue
				}
				if rand.Float64() >= perTickChance(s.config.PostFrequency, tickInterval) {
					continue
				}

				start := time.Now()
				post, err := reader.Store.CreatePost(ctx, transport.CreatePostInput{
					Content:   faker.Sentence(10),
					AccountID: reader.AccountID,
				})
				s.recordRequest(start, err)
				if err != nil {
					log.Printf("Debug: failed to create post: %v", err)
					continue
				}

				s.stats.mu.Lock()
				s.stats.TotalPosts++
				s.stats.mu.Unlock()
				log.Printf("Created post %s by account %s", post.ID, reader.AccountID)
			}
		}
	}
}

// openRandomPost navigates into a post detail: clear old detail state, load
// the post, bump its view counter, load its comments.
func (s *Simulator) openRandomPost(ctx context.Context, reader *SimulatedReader) {
	post, ok := s.randomFeedPost(reader)
	if !ok {
		return
	}

	reader.Store.ClearCurrentPost()

	start := time.Now()
	err := reader.Store.FetchPostByID(ctx, post.ID)
	s.recordRequest(start, err)
	if err != nil {
		return
	}

	reader.Store.IncrementView(ctx, post.ID)

	start = time.Now()
	err = reader.Store.FetchComments(ctx, post.ID)
	s.recordRequest(start, err)

	reader.touch()
	s.stats.mu.Lock()
	s.stats.PostsOpened++
	s.stats.mu.Unlock()
}

func (s *Simulator) likeRandomPost(ctx context.Context, reader *SimulatedReader) {
	post, ok := s.randomFeedPost(reader)
	if !ok {
		return
	}

	liked := reader.liked(post.ID)
	start := time.Now()
	err := reader.Store.ToggleLike(ctx, post.ID, liked)
	s.recordRequest(start, err)
	if err != nil {
		log.Printf("Debug: toggle like on %s failed: %v", post.ID, err)
		return
	}

	reader.setLiked(post.ID, !liked)
	s.stats.mu.Lock()
	s.stats.TotalLikes++
	s.stats.mu.Unlock()
}

func (s *Simulator) commentOnCurrentPost(ctx context.Context, reader *SimulatedReader, faker *gofakeit.Faker) {
	snap, err := reader.Store.Snapshot()
	if err != nil || snap.CurrentPost == nil {
		return
	}

	start := time.Now()
	_, err = reader.Store.CreateComment(ctx, transport.CreateCommentInput{
		Content:   faker.Sentence(8),
		PostID:    snap.CurrentPost.ID,
		AccountID: reader.AccountID,
	})
	s.recordRequest(start, err)
	if err != nil {
		log.Printf("Debug: comment on %s failed: %v", snap.CurrentPost.ID, err)
		return
	}

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
}

// randomFeedPost picks a post from the reader's current feed snapshot.
func (s *Simulator) randomFeedPost(reader *SimulatedReader) (models.Post, bool) {
	snap, err := reader.Store.Snapshot()
	if err != nil || len(snap.Posts) == 0 {
		return models.Post{}, false
	}
	return snap.Posts[rand.Intn(len(snap.Posts))], true
}

// perTickChance converts an events-per-hour frequency into a per-tick
// probability.
func perTickChance(perHour float64, tick time.Duration) float64 {
	return perHour / 3600.0 * tick.Seconds()
}
