package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/userpanel/internal/repo"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	pkg_hash "github.com/Skotchmaster/userpanel/pkg/hash"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3", "abc123", "2024-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "userpanel 1.2.3 (commit abc123, built 2024-01-01")
}

func TestMigrateAndAdminCreate(t *testing.T) {
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ES_URL", "")

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "admin", "create", "--username", "root", "--email", "root@example.com", "--password", "rootpass")
	require.NoError(t, err)
	assert.Contains(t, out, `Created admin user "root"`)

	_, err = run(t, "admin", "create", "--username", "root", "--email", "other@example.com", "--password", "rootpass")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "admin", "create", "--username", "x", "--email", "not-an-email", "--password", "rootpass")
	assert.ErrorContains(t, err, "invalid email")

	ctx := context.Background()
	db, err := pkgdb.Open(ctx, dsn)
	require.NoError(t, err)
	defer pkgdb.Close(db)

	u, err := repo.New(db).GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsActive)
	assert.True(t, pkg_hash.CheckPassword(u.PasswordHash, "rootpass"))
}

func TestMigrate_FlagsNeedConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ES_URL", "")

	_, err := run(t, "migrate", "--topics")
	assert.ErrorContains(t, err, "KAFKA_BROKERS")

	_, err = run(t, "migrate", "--reindex")
	assert.ErrorContains(t, err, "ES_URL")
}

func TestServe_RequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := run(t, "serve")
	assert.ErrorContains(t, err, "JWT_SECRET")
}
