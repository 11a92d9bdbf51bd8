// Package mockapi is an in-process stand-in for the community backend. It
// serves the real wire contract (envelope responses, ObjectID ids, relative
// media paths, counter deltas) from in-memory maps, so integration tests,
// the simulator, and the demo command can run without a deployed server.
package mockapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"community-feed/internal/utils"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Dev-only signing key for tokens issued by the mock backend
	tokenSecret = "community-feed-mock-backend-secret"

	maxContentLength = 1000
)

type accountRecord struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type postRecord struct {
	ID        string         `json:"_id"`
	Content   string         `json:"content"`
	Image     string         `json:"image,omitempty"`
	Star      int            `json:"star"`
	View      int            `json:"view"`
	Comment   int            `json:"comment"`
	Account   *accountRecord `json:"account_id"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

type commentRecord struct {
	ID        string         `json:"_id"`
	Content   string         `json:"content"`
	Image     string         `json:"image,omitempty"`
	PostID    string         `json:"post_id"`
	Account   *accountRecord `json:"account_id"`
	CreatedAt string         `json:"createdAt"`
}

// Server holds the in-memory backend state behind the HTTP contract.
type Server struct {
	mu           sync.Mutex
	accounts     map[string]*accountRecord
	posts        map[string]*postRecord
	postOrder    []string // newest first
	comments     map[string]*commentRecord
	commentOrder map[string][]string // post id -> comment ids, newest first
	mux          *http.ServeMux
}

func NewServer() *Server {
	s := &Server{
		accounts:     make(map[string]*accountRecord),
		posts:        make(map[string]*postRecord),
		comments:     make(map[string]*commentRecord),
		commentOrder: make(map[string][]string),
		mux:          http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/posts", s.handleListPosts)
	s.mux.HandleFunc("POST /api/posts", s.handleCreatePost)
	s.mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	s.mux.HandleFunc("PATCH /api/posts/{id}", s.handleUpdatePost)
	s.mux.HandleFunc("DELETE /api/posts/{id}", s.handleDeletePost)
	s.mux.HandleFunc("GET /api/comments/{postId}", s.handleListComments)
	s.mux.HandleFunc("POST /api/comments", s.handleCreateComment)
	s.mux.HandleFunc("DELETE /api/comments/{id}", s.handleDeleteComment)

	return s
}

// Handler exposes the backend routes for httptest or a listener.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Listen serves the backend on the given address and returns its base URL.
// Use "127.0.0.1:0" for an ephemeral port.
func (s *Server) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	go func() {
		if err := http.Serve(ln, s.mux); err != nil {
			log.Printf("MockAPI: server stopped: %v", err)
		}
	}()
	baseURL := "http://" + ln.Addr().String()
	log.Printf("MockAPI: listening on %s", baseURL)
	return baseURL, nil
}

// RegisterAccount creates a backend account and returns its id.
func (s *Server) RegisterAccount(username, fullName, avatar string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := &accountRecord{
		ID:       primitive.NewObjectID().Hex(),
		Username: username,
		FullName: fullName,
		Avatar:   avatar,
	}
	s.accounts[account.ID] = account
	return account.ID
}

// IssueToken signs a session token carrying the account identity, shaped
// like the one the real backend hands out on login.
func (s *Server) IssueToken(accountID string) (string, error) {
	s.mu.Lock()
	account, exists := s.accounts[accountID]
	s.mu.Unlock()
	if !exists {
		return "", utils.NewAppError(utils.ErrNotFound, "account not found: "+accountID, nil)
	}

	claims := jwt.MapClaims{
		"account_id": account.ID,
		"username":   account.Username,
		"sub":        account.ID,
		"iat":        jwt.NewNumericDate(time.Now()),
		"exp":        jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		"iss":        "community-feed-mockapi",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tokenSecret))
}

// Seed populates the backend with fake accounts and posts.
func (s *Server) Seed(numAccounts, numPosts int) []string {
	faker := gofakeit.New(0)

	accountIDs := make([]string, 0, numAccounts)
	for i := 0; i < numAccounts; i++ {
		avatar := ""
		if i%2 == 0 {
			avatar = fmt.Sprintf("uploads/avatar-%d.png", i)
		}
		fullName := faker.Name()
		if i%5 == 4 {
			// Some accounts never set a display name
			fullName = ""
		}
		accountIDs = append(accountIDs, s.RegisterAccount(faker.Username(), fullName, avatar))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < numPosts; i++ {
		account := s.accounts[accountIDs[i%len(accountIDs)]]
		post := &postRecord{
			ID:        primitive.NewObjectID().Hex(),
			Content:   faker.Sentence(12),
			Star:      faker.Number(0, 40),
			View:      faker.Number(0, 300),
			Account:   account,
			CreatedAt: time.Now().Add(-time.Duration(numPosts-i) * time.Minute).UTC().Format(time.RFC3339),
		}
		post.UpdatedAt = post.CreatedAt
		if i%3 == 0 {
			post.Image = fmt.Sprintf("uploads/%s.jpg", post.ID)
		}
		s.posts[post.ID] = post
		s.postOrder = append([]string{post.ID}, s.postOrder...)
	}

	log.Printf("MockAPI: seeded %d accounts and %d posts", numAccounts, numPosts)
	return accountIDs
}

// --- response helpers ---

func writeEnvelope(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"statusCode": statusCode,
		"message":    message,
		"data":       data,
	})
}

func writeError(w http.ResponseWriter, code string, message string) {
	writeEnvelope(w, utils.AppErrorToHTTPStatus(code), message, nil)
}

// --- post handlers ---

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	limit := 10
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	accountFilter := r.URL.Query().Get("account_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]*postRecord, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		post := s.posts[id]
		if accountFilter != "" && post.Account.ID != accountFilter {
			continue
		}
		matching = append(matching, post)
	}

	start := (page - 1) * limit
	if start > len(matching) {
		start = len(matching)
	}
	end := start + limit
	if end > len(matching) {
		end = len(matching)
	}

	writeEnvelope(w, http.StatusOK, "ok", matching[start:end])
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[r.PathValue("id")]
	if !exists {
		writeError(w, utils.ErrNotFound, "post not found")
		return
	}
	writeEnvelope(w, http.StatusOK, "ok", post)
}

// createForm extracts content/account_id/post_id from either a JSON body or
// a multipart form with an optional image file.
type createForm struct {
	Content   string `json:"content"`
	AccountID string `json:"account_id"`
	PostID    string `json:"post_id"`
	imagePath string
}

func (s *Server) parseCreateForm(r *http.Request) (*createForm, error) {
	contentType := r.Header.Get("Content-Type")

	if len(contentType) >= len("multipart/") && contentType[:len("multipart/")] == "multipart/" {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			return nil, utils.NewAppError(utils.ErrInvalidInput, "malformed multipart form", err)
		}
		form := &createForm{
			Content:   r.FormValue("content"),
			AccountID: r.FormValue("account_id"),
			PostID:    r.FormValue("post_id"),
		}
		if _, header, err := r.FormFile("image"); err == nil {
			// The mock never stores bytes, it only hands back a relative path
			form.imagePath = fmt.Sprintf("uploads/%s-%s", primitive.NewObjectID().Hex(), header.Filename)
		}
		return form, nil
	}

	form := &createForm{}
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "malformed JSON body", err)
	}
	return form, nil
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseCreateForm(r)
	if err != nil {
		writeError(w, utils.ErrInvalidInput, err.Error())
		return
	}
	if form.Content == "" || len(form.Content) > maxContentLength {
		writeError(w, utils.ErrInvalidInput, "content is required and limited to 1000 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[form.AccountID]
	if !exists {
		writeError(w, utils.ErrNotFound, "account not found")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	post := &postRecord{
		ID:        primitive.NewObjectID().Hex(),
		Content:   form.Content,
		Image:     form.imagePath,
		Account:   account,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts[post.ID] = post
	s.postOrder = append([]string{post.ID}, s.postOrder...)

	writeEnvelope(w, http.StatusCreated, "created", post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var delta struct {
		Star int `json:"star"`
		View int `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		writeError(w, utils.ErrInvalidInput, "malformed JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[r.PathValue("id")]
	if !exists {
		writeError(w, utils.ErrNotFound, "post not found")
		return
	}

	post.Star += delta.Star
	if post.Star < 0 {
		post.Star = 0
	}
	post.View += delta.View
	if post.View < 0 {
		post.View = 0
	}
	post.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	writeEnvelope(w, http.StatusOK, "updated", post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if _, exists := s.posts[id]; !exists {
		writeError(w, utils.ErrNotFound, "post not found")
		return
	}

	delete(s.posts, id)
	remaining := make([]string, 0, len(s.postOrder))
	for _, postID := range s.postOrder {
		if postID != id {
			remaining = append(remaining, postID)
		}
	}
	s.postOrder = remaining

	// Drop the post's comments as well
	for _, commentID := range s.commentOrder[id] {
		delete(s.comments, commentID)
	}
	delete(s.commentOrder, id)

	writeEnvelope(w, http.StatusOK, "deleted", map[string]bool{"success": true})
}

// --- comment handlers ---

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID := r.PathValue("postId")
	comments := make([]*commentRecord, 0, len(s.commentOrder[postID]))
	for _, id := range s.commentOrder[postID] {
		comments = append(comments, s.comments[id])
	}

	writeEnvelope(w, http.StatusOK, "ok", comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseCreateForm(r)
	if err != nil {
		writeError(w, utils.ErrInvalidInput, err.Error())
		return
	}
	if form.Content == "" || len(form.Content) > maxContentLength {
		writeError(w, utils.ErrInvalidInput, "content is required and limited to 1000 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[form.AccountID]
	if !exists {
		writeError(w, utils.ErrNotFound, "account not found")
		return
	}
	post, exists := s.posts[form.PostID]
	if !exists {
		writeError(w, utils.ErrNotFound, "post not found")
		return
	}

	comment := &commentRecord{
		ID:        primitive.NewObjectID().Hex(),
		Content:   form.Content,
		Image:     form.imagePath,
		PostID:    post.ID,
		Account:   account,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.comments[comment.ID] = comment
	s.commentOrder[post.ID] = append([]string{comment.ID}, s.commentOrder[post.ID]...)
	post.Comment++

	writeEnvelope(w, http.StatusCreated, "created", comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	comment, exists := s.comments[id]
	if !exists {
		writeError(w, utils.ErrNotFound, "comment not found")
		return
	}

	delete(s.comments, id)
	remaining := make([]string, 0, len(s.commentOrder[comment.PostID]))
	for _, commentID := range s.commentOrder[comment.PostID] {
		if commentID != id {
			remaining = append(remaining, commentID)
		}
	}
	s.commentOrder[comment.PostID] = remaining

	if post, ok := s.posts[comment.PostID]; ok && post.Comment > 0 {
		post.Comment--
	}

	writeEnvelope(w, http.StatusOK, "deleted", map[string]bool{"success": true})
}
