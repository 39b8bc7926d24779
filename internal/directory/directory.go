// Package directory is the user search index.
//
// The Elastic implementation keeps one document per user in an
// Elasticsearch index. When no cluster is configured the DB implementation
// answers searches straight from the users table.
package directory

import (
	"context"
	"strings"

	"github.com/Skotchmaster/userpanel/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Entry struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

func EntryFrom(u *models.User) Entry {
	return Entry{Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}
}

type Directory interface {
	Index(ctx context.Context, e Entry) error
	Remove(ctx context.Context, username string) error
	Search(ctx context.Context, q string, limit int) ([]Entry, error)
}

func normalize(q string, limit int) (string, int) {
	q = strings.TrimSpace(q)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return q, limit
}
