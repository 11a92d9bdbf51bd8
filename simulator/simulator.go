// Package simulator drives the feed store the way a crowd of readers would:
// refreshing the feed, opening posts, liking, commenting, and paginating.
// Each simulated reader owns a store session, exactly like one mounted UI.
package simulator

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"community-feed/internal/config"
	"community-feed/internal/normalize"
	"community-feed/internal/store"
	"community-feed/internal/transport"
	"community-feed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

type SimConfig struct {
	NumReaders       int
	SessionTime      time.Duration
	BrowseFrequency  float64 // feed refreshes per reader per hour
	OpenFrequency    float64 // post detail opens per reader per hour
	LikeFrequency    float64
	CommentFrequency float64
	PostFrequency    float64
	DisconnectRate   float64
	ReconnectRate    float64
	APIBaseURL       string
	PageLimit        int
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	ActiveReaders    int
	FeedFetches      int
	PagesAppended    int
	PostsOpened      int
	TotalLikes       int
	TotalComments    int
	TotalPosts       int
	RequestLatencies []time.Duration
}

// SimulatedReader is one browsing session: an account identity plus its own
// feed store. A reader can sit in several worker queues at once, so the
// mutable session fields live behind the reader's own mutex.
type SimulatedReader struct {
	AccountID string
	Username  string
	Store     *store.FeedStore

	mu          sync.Mutex
	isConnected bool
	lastActive  time.Time
	likedPosts  map[string]bool // post id -> currently liked
}

func (r *SimulatedReader) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isConnected
}

func (r *SimulatedReader) setConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isConnected = connected
	if connected {
		r.lastActive = time.Now()
	}
}

func (r *SimulatedReader) touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()
}

func (r *SimulatedReader) liked(postID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likedPosts[postID]
}

func (r *SimulatedReader) setLiked(postID string, liked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.likedPosts[postID] = liked
}

type Simulator struct {
	config     SimConfig
	stats      *SimulationStats
	readers    []*SimulatedReader
	accountIDs []string
	system     *actor.ActorSystem
	metrics    *utils.MetricsCollector
	mu         sync.RWMutex
}

// NewSimulator builds a simulator over pre-provisioned backend accounts.
func NewSimulator(cfg SimConfig, accountIDs []string) *Simulator {
	return &Simulator{
		config:     cfg,
		accountIDs: accountIDs,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		metrics: utils.NewMetricsCollector(),
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting feed simulation...")

	s.initialize()
	defer s.shutdown()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

// initialize spawns one store session per reader over a shared actor system
// and transport client.
func (s *Simulator) initialize() {
	s.system = actor.NewActorSystem()

	client := transport.NewClient(&config.ClientConfig{
		BaseURL:        s.config.APIBaseURL,
		RequestTimeout: 10 * time.Second,
	}, s.metrics)
	norm := normalize.New(client)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readers = make([]*SimulatedReader, 0, s.config.NumReaders)
	for i := 0; i < s.config.NumReaders; i++ {
		accountID := s.accountIDs[i%len(s.accountIDs)]
		s.readers = append(s.readers, &SimulatedReader{
			AccountID:   accountID,
			Store:       store.NewFeedStore(s.system, client, norm, s.metrics),
			isConnected: true,
			lastActive:  time.Now(),
			likedPosts:  make(map[string]bool),
		})
	}

	s.stats.mu.Lock()
	s.stats.ActiveReaders = len(s.readers)
	s.stats.mu.Unlock()

	log.Printf("Initialized %d readers against %s", len(s.readers), s.config.APIBaseURL)
}

func (s *Simulator) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reader := range s.readers {
		reader.Store.Stop()
	}
}

// simulateConnectivity churns reader connection state over time.
func (s *Simulator) simulateConnectivity(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			readers := s.readers
			s.mu.RUnlock()

			active := 0
			for _, reader := range readers {
				if reader.Connected() {
					if rand.Float64() < s.config.DisconnectRate {
						reader.setConnected(false)
					}
				} else if rand.Float64() < s.config.ReconnectRate {
					reader.setConnected(true)
				}
				if reader.Connected() {
					active++
				}
			}

			s.stats.mu.Lock()
			s.stats.ActiveReaders = active
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			log.Printf("Simulation stats: requests=%d ok=%d failed=%d feeds=%d appends=%d opens=%d likes=%d comments=%d posts=%d active=%d",
				s.stats.TotalRequests,
				s.stats.SuccessRequests,
				s.stats.FailedRequests,
				s.stats.FeedFetches,
				s.stats.PagesAppended,
				s.stats.PostsOpened,
				s.stats.TotalLikes,
				s.stats.TotalComments,
				s.stats.TotalPosts,
				s.stats.ActiveReaders,
			)
			s.stats.mu.RUnlock()
		}
	}
}

func (s *Simulator) recordRequest(start time.Time, err error) {
	latency := time.Since(start)

	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)
}

// Metrics is the final simulation summary.
type Metrics struct {
	TotalReaders   int
	ActiveReaders  int
	TotalRequests  int64
	FailedRequests int64
	FeedFetches    int
	PagesAppended  int
	PostsOpened    int
	TotalLikes     int
	TotalComments  int
	TotalPosts     int
	AverageLatency time.Duration
}

func (s *Simulator) GetMetrics() Metrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	var average time.Duration
	if len(s.stats.RequestLatencies) > 0 {
		var total time.Duration
		for _, latency := range s.stats.RequestLatencies {
			total += latency
		}
		average = total / time.Duration(len(s.stats.RequestLatencies))
	}

	return Metrics{
		TotalReaders:   len(s.readers),
		ActiveReaders:  s.stats.ActiveReaders,
		TotalRequests:  s.stats.TotalRequests,
		FailedRequests: s.stats.FailedRequests,
		FeedFetches:    s.stats.FeedFetches,
		PagesAppended:  s.stats.PagesAppended,
		PostsOpened:    s.stats.PostsOpened,
		TotalLikes:     s.stats.TotalLikes,
		TotalComments:  s.stats.TotalComments,
		TotalPosts:     s.stats.TotalPosts,
		AverageLatency: average,
	}
}
