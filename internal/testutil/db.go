// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/userpanel/internal/models"
	"github.com/Skotchmaster/userpanel/internal/repo"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	"github.com/Skotchmaster/userpanel/pkg/hash"
)

// NewDB opens a fresh migrated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, repo.New(db).Migrate(context.Background()))

	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

// CreateUser inserts an active user with a bcrypt hash of password.
func CreateUser(t *testing.T, db *gorm.DB, username, email, password string, isAdmin bool) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		IsActive:     true,
		IsAdmin:      isAdmin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
