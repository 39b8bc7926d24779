package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/userpanel/internal/service"
)

func TestRunBlacklistJanitor(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, e.repo.BlacklistToken(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, e.repo.BlacklistToken(ctx, "live", time.Now().Add(time.Hour)))

	done := make(chan struct{})
	go func() {
		service.RunBlacklistJanitor(ctx, e.repo, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		ok, err := e.repo.IsBlacklisted(context.Background(), "expired")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}

	ok, err := e.repo.IsBlacklisted(context.Background(), "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunBlacklistJanitor_Disabled(t *testing.T) {
	e := newEnv(t)
	finished := make(chan struct{})
	go func() {
		service.RunBlacklistJanitor(context.Background(), e.repo, 0)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("disabled janitor should return immediately")
	}
}
