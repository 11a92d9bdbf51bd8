package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"community-feed/internal/config"
	"community-feed/internal/utils"

	"github.com/google/uuid"
)

// Client is the typed HTTP client for the community backend. Every failure
// mode (network error, non-2xx response, envelope status outside [200,300),
// malformed payload) comes back as an error value carrying a human-readable
// message; nothing panics across this boundary.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *utils.MetricsCollector
}

// envelope is the backend's optional response wrapper. A body without a
// statusCode field is treated as the payload itself.
type envelope struct {
	StatusCode *int            `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func NewClient(cfg *config.ClientConfig, metrics *utils.MetricsCollector) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AuthToken,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		metrics: metrics,
	}
}

// ResolveMediaURL turns a possibly-relative media reference into an absolute
// URL. Absolute references pass through untouched; empty input stays empty.
func (c *Client) ResolveMediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

// call performs a single request and returns the payload bytes. Envelope
// responses are unwrapped here so callers only ever see the data.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (json.RawMessage, error) {
	c.metrics.IncrementRequests()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrTransport, "failed to build request", err)
	}

	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrTransport, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrTransport, "failed to read response body", err)
	}

	// Prefer the envelope message for error reporting when one is present.
	var env envelope
	hasEnvelope := json.Unmarshal(raw, &env) == nil && env.StatusCode != nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncrementErrors()
		message := fmt.Sprintf("backend returned status %d", resp.StatusCode)
		if hasEnvelope && env.Message != "" {
			message = env.Message
		}
		code := utils.ErrBadStatus
		if resp.StatusCode == http.StatusNotFound {
			code = utils.ErrNotFound
		}
		return nil, utils.NewAppError(code, message, nil)
	}

	if hasEnvelope {
		if *env.StatusCode < 200 || *env.StatusCode >= 300 {
			c.metrics.IncrementErrors()
			message := env.Message
			if message == "" {
				message = fmt.Sprintf("backend reported status %d", *env.StatusCode)
			}
			code := utils.ErrBadStatus
			if *env.StatusCode == http.StatusNotFound {
				code = utils.ErrNotFound
			}
			return nil, utils.NewAppError(code, message, nil)
		}
		return env.Data, nil
	}

	// No envelope: the raw body is the data.
	return raw, nil
}

// callJSON marshals body (when present) and performs a JSON request.
func (c *Client) callJSON(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrBadPayload, "failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.call(ctx, method, path, query, reader, contentType)
}

// ListPostsOptions configures filtering and pagination for listing posts.
type ListPostsOptions struct {
	Page      int
	Limit     int
	AccountID string
}

// ListPosts fetches one page of the feed.
func (c *Client) ListPosts(ctx context.Context, opts ListPostsOptions) ([]RawPost, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.AccountID != "" {
		query.Set("account_id", opts.AccountID)
	}

	data, err := c.call(ctx, http.MethodGet, "/api/posts", query, nil, "")
	if err != nil {
		return nil, err
	}

	var posts []RawPost
	if err := json.Unmarshal(data, &posts); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed post list payload", err)
	}
	return posts, nil
}

// GetPost fetches a single post record.
func (c *Client) GetPost(ctx context.Context, id string) (*RawPost, error) {
	data, err := c.call(ctx, http.MethodGet, "/api/posts/"+id, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var post RawPost
	if err := json.Unmarshal(data, &post); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed post payload", err)
	}
	return &post, nil
}

// CreatePostInput carries the fields for a new post. When Image is set the
// request goes out as multipart form data, otherwise as JSON.
type CreatePostInput struct {
	Content   string
	AccountID string
	ImageName string
	Image     io.Reader
}

// CreatePost creates a post and returns the created record.
func (c *Client) CreatePost(ctx context.Context, input CreatePostInput) (*RawPost, error) {
	var data json.RawMessage
	var err error

	if input.Image != nil {
		fields := map[string]string{
			"content":    input.Content,
			"account_id": input.AccountID,
		}
		data, err = c.callMultipart(ctx, http.MethodPost, "/api/posts", fields, input.ImageName, input.Image)
	} else {
		body := map[string]string{
			"content":    input.Content,
			"account_id": input.AccountID,
		}
		data, err = c.callJSON(ctx, http.MethodPost, "/api/posts", nil, body)
	}
	if err != nil {
		return nil, err
	}

	var post RawPost
	if err := json.Unmarshal(data, &post); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed created post payload", err)
	}
	return &post, nil
}

// PostDelta is a relative counter update. The backend applies the signed Star
// delta and the View delta rather than absolute sets.
type PostDelta struct {
	Star int `json:"star,omitempty"`
	View int `json:"view,omitempty"`
}

// UpdatePost applies a counter delta and returns the updated record.
func (c *Client) UpdatePost(ctx context.Context, id string, delta PostDelta) (*RawPost, error) {
	data, err := c.callJSON(ctx, http.MethodPatch, "/api/posts/"+id, nil, delta)
	if err != nil {
		return nil, err
	}

	var post RawPost
	if err := json.Unmarshal(data, &post); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed updated post payload", err)
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/api/posts/"+id, nil, nil, "")
	return err
}

// ListComments fetches the comments of one post.
func (c *Client) ListComments(ctx context.Context, postID string) ([]RawComment, error) {
	data, err := c.call(ctx, http.MethodGet, "/api/comments/"+postID, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var comments []RawComment
	if err := json.Unmarshal(data, &comments); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed comment list payload", err)
	}
	return comments, nil
}

// CreateCommentInput carries the fields for a new comment.
type CreateCommentInput struct {
	Content   string
	PostID    string
	AccountID string
	ImageName string
	Image     io.Reader
}

// CreateComment creates a comment and returns the created record.
func (c *Client) CreateComment(ctx context.Context, input CreateCommentInput) (*RawComment, error) {
	var data json.RawMessage
	var err error

	if input.Image != nil {
		fields := map[string]string{
			"content":    input.Content,
			"post_id":    input.PostID,
			"account_id": input.AccountID,
		}
		data, err = c.callMultipart(ctx, http.MethodPost, "/api/comments", fields, input.ImageName, input.Image)
	} else {
		body := map[string]string{
			"content":    input.Content,
			"post_id":    input.PostID,
			"account_id": input.AccountID,
		}
		data, err = c.callJSON(ctx, http.MethodPost, "/api/comments", nil, body)
	}
	if err != nil {
		return nil, err
	}

	var comment RawComment
	if err := json.Unmarshal(data, &comment); err != nil {
		c.metrics.IncrementErrors()
		return nil, utils.NewAppError(utils.ErrBadPayload, "malformed created comment payload", err)
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/api/comments/"+id, nil, nil, "")
	return err
}

// callMultipart builds a multipart form with the given fields plus an image
// file part and performs the request.
func (c *Client) callMultipart(ctx context.Context, method, path string, fields map[string]string, imageName string, image io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, utils.NewAppError(utils.ErrBadPayload, "failed to encode form field "+key, err)
		}
	}

	if imageName == "" {
		imageName = "upload"
	}
	part, err := writer.CreateFormFile("image", imageName)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrBadPayload, "failed to create image part", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, utils.NewAppError(utils.ErrBadPayload, "failed to copy image data", err)
	}

	if err := writer.Close(); err != nil {
		return nil, utils.NewAppError(utils.ErrBadPayload, "failed to finalize form", err)
	}

	log.Printf("Client: Sending multipart %s %s (%d bytes)", method, path, buf.Len())
	return c.call(ctx, method, path, nil, &buf, writer.FormDataContentType())
}
