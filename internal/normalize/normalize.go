// Package normalize maps raw backend records into the stable frontend
// view-model shapes. Every transform here is pure and total: partially
// populated input produces a partially populated view-model, never an error.
package normalize

import (
	"strings"

	"community-feed/internal/models"
	"community-feed/internal/transport"
)

// MediaResolver resolves a possibly-relative media reference into an
// absolute URL. Implemented by the transport client.
type MediaResolver interface {
	ResolveMediaURL(ref string) string
}

type Normalizer struct {
	media MediaResolver
}

func New(media MediaResolver) *Normalizer {
	return &Normalizer{media: media}
}

// Post maps one raw post record into its view-model.
func (n *Normalizer) Post(raw transport.RawPost) models.Post {
	return models.Post{
		ID:           raw.ID,
		Content:      raw.Content,
		Image:        n.media.ResolveMediaURL(raw.Image),
		Author:       n.author(raw.Account),
		Likes:        nonNegative(raw.Star),
		Views:        nonNegative(raw.View),
		CommentCount: nonNegative(raw.Comment),
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
	}
}

// Posts maps a whole page of raw post records, preserving order.
func (n *Normalizer) Posts(raw []transport.RawPost) []models.Post {
	posts := make([]models.Post, 0, len(raw))
	for _, record := range raw {
		posts = append(posts, n.Post(record))
	}
	return posts
}

// Comment maps one raw comment record into its view-model.
func (n *Normalizer) Comment(raw transport.RawComment) models.Comment {
	return models.Comment{
		ID:        raw.ID,
		PostID:    raw.PostID,
		Content:   raw.Content,
		Image:     n.media.ResolveMediaURL(raw.Image),
		Author:    n.author(raw.Account),
		CreatedAt: raw.CreatedAt,
	}
}

// Comments maps a list of raw comment records, preserving order.
func (n *Normalizer) Comments(raw []transport.RawComment) []models.Comment {
	comments := make([]models.Comment, 0, len(raw))
	for _, record := range raw {
		comments = append(comments, n.Comment(record))
	}
	return comments
}

// author derives the display identity from an account reference. The full
// name splits on whitespace: first token becomes the first name, the rest
// joins into the last name. Without a full name the username stands in for
// the first name. A bare account id yields an author with only ID set.
func (n *Normalizer) author(account transport.RawAccount) models.Author {
	author := models.Author{
		ID:       account.ID,
		Username: account.Username,
		Avatar:   n.media.ResolveMediaURL(account.Avatar),
	}

	tokens := strings.Fields(account.FullName)
	switch {
	case len(tokens) > 1:
		author.FirstName = tokens[0]
		author.LastName = strings.Join(tokens[1:], " ")
	case len(tokens) == 1:
		author.FirstName = tokens[0]
	default:
		author.FirstName = account.Username
	}

	return author
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
