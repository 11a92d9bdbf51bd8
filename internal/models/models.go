package models

// Pagination tracks the feed cursor. HasMore is computed client-side: the
// last fetched page returned exactly Limit items. Total is the number of
// posts currently held, not a server-side count.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// StatusResponse is the generic acknowledgement shape for delete operations.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
