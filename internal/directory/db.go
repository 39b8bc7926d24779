package directory

import (
	"context"

	"github.com/Skotchmaster/userpanel/internal/models"
)

type prefixSearcher interface {
	SearchByPrefix(ctx context.Context, q string, limit int) ([]models.User, error)
}

// DB searches the users table directly. Index and Remove are no-ops since
// the table is the source of truth.
type DB struct {
	Repo prefixSearcher
}

func (DB) Index(context.Context, Entry) error    { return nil }
func (DB) Remove(context.Context, string) error { return nil }

func (d DB) Search(ctx context.Context, q string, limit int) ([]Entry, error) {
	q, limit = normalize(q, limit)
	if q == "" {
		return []Entry{}, nil
	}

	users, err := d.Repo.SearchByPrefix(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(users))
	for i := range users {
		out = append(out, EntryFrom(&users[i]))
	}
	return out, nil
}
