package domain

import (
	"context"
	"encoding/json"
	"time"
)

// TokenIssuer exchanges client credentials for a bearer token.
type TokenIssuer interface {
	RequestToken(ctx context.Context, tenantID, clientID, clientSecret string) (Token, error)
}

// Directory is the remote user directory. Responses are handed back as
// received, error bodies included.
type Directory interface {
	ListUsers(ctx context.Context, token Token) (json.RawMessage, error)
	AddUser(ctx context.Context, token Token, user *UserSpecification) (json.RawMessage, error)
}

// JournalEntry records one account creation attempt. Passwords are never
// stored.
type JournalEntry struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	DisplayName       string    `json:"displayName"`
	Email             string    `json:"email"`
	UserPrincipalName string    `json:"userPrincipalName"`
	DirectoryID       string    `json:"directoryId,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Journal interface {
	Record(context.Context, JournalEntry) error
	List(context.Context) ([]JournalEntry, error)
	Close() error
}
