package transport

import "encoding/json"

// RawAccount is the backend's account reference. The backend sends it either
// as a bare id string or as an embedded account object, depending on whether
// the record was joined. Both decode into the same struct; a bare id leaves
// every other field empty.
type RawAccount struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	FullName string `json:"full_name"`
}

func (a *RawAccount) UnmarshalJSON(data []byte) error {
	// Bare id string
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*a = RawAccount{ID: id}
		return nil
	}

	// Embedded account object
	type rawAccount RawAccount
	var embedded rawAccount
	if err := json.Unmarshal(data, &embedded); err != nil {
		return err
	}
	*a = RawAccount(embedded)
	return nil
}

// RawPost is a backend post record as it comes off the wire. Counters may be
// absent and default to 0.
type RawPost struct {
	ID        string     `json:"_id"`
	Content   string     `json:"content"`
	Image     string     `json:"image"`
	Star      int        `json:"star"`
	View      int        `json:"view"`
	Comment   int        `json:"comment"`
	Account   RawAccount `json:"account_id"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

// RawComment is a backend comment record as it comes off the wire.
type RawComment struct {
	ID        string     `json:"_id"`
	Content   string     `json:"content"`
	Image     string     `json:"image"`
	PostID    string     `json:"post_id"`
	Account   RawAccount `json:"account_id"`
	CreatedAt string     `json:"createdAt"`
}
