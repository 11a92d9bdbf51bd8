// Command simulator load-tests the feed store with a crowd of simulated
// readers. Point API_BASE_URL at a backend, or let it spawn the in-process
// mock.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"community-feed/internal/mockapi"
	"community-feed/simulator"

	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cfg := simulator.SimConfig{
		NumReaders:       10,
		SessionTime:      2 * time.Minute,
		BrowseFrequency:  300.0,
		OpenFrequency:    240.0,
		LikeFrequency:    120.0,
		CommentFrequency: 60.0,
		PostFrequency:    30.0,
		DisconnectRate:   0.01,
		ReconnectRate:    0.05,
		APIBaseURL:       os.Getenv("API_BASE_URL"),
		PageLimit:        10,
	}

	var accountIDs []string
	if cfg.APIBaseURL == "" {
		backend := mockapi.NewServer()
		accountIDs = backend.Seed(cfg.NumReaders, 40)

		baseURL, err := backend.Listen("127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to start mock backend: %v", err)
		}
		cfg.APIBaseURL = baseURL
	} else {
		// Against a real backend the reader identities come from the
		// environment, comma-free single account for now.
		account := os.Getenv("ACCOUNT_ID")
		if account == "" {
			log.Fatalf("ACCOUNT_ID is required when API_BASE_URL is set")
		}
		accountIDs = []string{account}
	}

	log.Printf("Starting simulation with configuration:")
	log.Printf("- API base URL: %s", cfg.APIBaseURL)
	log.Printf("- Number of readers: %d", cfg.NumReaders)
	log.Printf("- Session time: %v", cfg.SessionTime)
	log.Printf("- Browse frequency: %.2f fetches/reader/hour", cfg.BrowseFrequency)
	log.Printf("- Open frequency: %.2f opens/reader/hour", cfg.OpenFrequency)
	log.Printf("- Like frequency: %.2f likes/reader/hour", cfg.LikeFrequency)
	log.Printf("- Comment frequency: %.2f comments/reader/hour", cfg.CommentFrequency)
	log.Printf("- Post frequency: %.2f posts/reader/hour", cfg.PostFrequency)

	sim := simulator.NewSimulator(cfg, accountIDs)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SessionTime)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total readers: %d", metrics.TotalReaders)
	log.Printf("- Active readers at end: %d", metrics.ActiveReaders)
	log.Printf("- Total requests: %d (failed: %d)", metrics.TotalRequests, metrics.FailedRequests)
	log.Printf("- Feed fetches: %d (pages appended: %d)", metrics.FeedFetches, metrics.PagesAppended)
	log.Printf("- Posts opened: %d", metrics.PostsOpened)
	log.Printf("- Likes: %d", metrics.TotalLikes)
	log.Printf("- Comments: %d", metrics.TotalComments)
	log.Printf("- Posts created: %d", metrics.TotalPosts)
	log.Printf("- Average latency: %v", metrics.AverageLatency)
}
