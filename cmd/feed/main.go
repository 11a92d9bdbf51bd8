// Command feed runs one interactive-style session against the community
// backend: fetch the feed, open a post, like it, comment, and load another
// page. Without API_BASE_URL it spins up the in-process mock backend first.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"community-feed/internal/config"
	"community-feed/internal/mockapi"
	"community-feed/internal/normalize"
	"community-feed/internal/session"
	"community-feed/internal/store"
	"community-feed/internal/transport"
	"community-feed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	if os.Getenv("API_BASE_URL") == "" {
		slog.Info("API_BASE_URL not set, starting in-process mock backend")
		if err := startMockBackend(); err != nil {
			slog.Error("failed to start mock backend", "err", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	current, err := session.FromToken(cfg.Client.AuthToken)
	if err != nil {
		slog.Error("failed to resolve current user", "err", err)
		os.Exit(1)
	}
	slog.Info("session established", "account", current.AccountID, "username", current.Username)

	metrics := utils.NewMetricsCollector()
	client := transport.NewClient(cfg.Client, metrics)
	norm := normalize.New(client)

	system := actor.NewActorSystem()
	feed := store.NewFeedStore(system, client, norm, metrics)
	defer feed.Stop()

	ctx := context.Background()

	if err := runSession(ctx, feed, current, cfg.Feed.PageLimit); err != nil {
		slog.Error("session failed", "err", err)
		os.Exit(1)
	}

	snap := metrics.Snapshot()
	slog.Info("session metrics", "requests", snap.Requests, "errors", snap.Errors)
	for op, latency := range snap.AverageLatencies {
		slog.Info("operation latency", "op", op, "avg", latency)
	}
}

// startMockBackend seeds a mock backend on an ephemeral port and exports its
// URL plus a session token into the environment the config loader reads.
func startMockBackend() error {
	backend := mockapi.NewServer()
	accountIDs := backend.Seed(5, 25)

	baseURL, err := backend.Listen("127.0.0.1:0")
	if err != nil {
		return err
	}

	token, err := backend.IssueToken(accountIDs[0])
	if err != nil {
		return err
	}

	os.Setenv("API_BASE_URL", baseURL)
	os.Setenv("AUTH_TOKEN", token)
	return nil
}

func runSession(ctx context.Context, feed *store.FeedStore, current *session.CurrentUser, pageLimit int) error {
	// First page of the feed
	if err := feed.FetchPosts(ctx, store.FetchOptions{Page: 1, Limit: pageLimit}); err != nil {
		return err
	}

	snap, err := feed.Snapshot()
	if err != nil {
		return err
	}
	slog.Info("feed loaded", "posts", len(snap.Posts), "hasMore", snap.Pagination.HasMore)
	printFeed(snap)

	if len(snap.Posts) == 0 {
		return nil
	}

	// Open the newest post the way the detail view would
	opened := snap.Posts[0]
	if err := feed.FetchPostByID(ctx, opened.ID); err != nil {
		return err
	}
	feed.IncrementView(ctx, opened.ID)
	if err := feed.FetchComments(ctx, opened.ID); err != nil {
		return err
	}

	// Like it and leave a comment
	if err := feed.ToggleLike(ctx, opened.ID, false); err != nil {
		return err
	}
	if _, err := feed.CreateComment(ctx, transport.CreateCommentInput{
		Content:   "First!",
		PostID:    opened.ID,
		AccountID: current.AccountID,
	}); err != nil {
		return err
	}

	snap, err = feed.Snapshot()
	if err != nil {
		return err
	}
	if snap.CurrentPost != nil {
		slog.Info("post detail",
			"id", snap.CurrentPost.ID,
			"author", snap.CurrentPost.Author.Username,
			"likes", snap.CurrentPost.Likes,
			"views", snap.CurrentPost.Views,
			"comments", snap.CurrentPost.CommentCount,
		)
	}

	// Scroll to the bottom
	issued, err := feed.LoadMorePosts(ctx, "")
	if err != nil {
		return err
	}
	slog.Info("load more", "issued", issued)

	// Back to the feed
	feed.ClearCurrentPost()

	snap, err = feed.Snapshot()
	if err != nil {
		return err
	}
	slog.Info("final state",
		"posts", len(snap.Posts),
		"page", snap.Pagination.Page,
		"hasMore", snap.Pagination.HasMore,
		"stale", snap.Stale(30*time.Second),
	)
	return nil
}

func printFeed(snap store.Snapshot) {
	for _, post := range snap.Posts {
		name := post.Author.Username
		if post.Author.FirstName != "" {
			name = post.Author.FirstName
			if post.Author.LastName != "" {
				name += " " + post.Author.LastName
			}
		}
		fmt.Printf("  %-24s %3d likes %4d views  %s\n", name, post.Likes, post.Views, truncate(post.Content, 60))
	}
}

// truncate cuts on rune boundaries; post content is user text.
func truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
