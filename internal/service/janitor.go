package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/userpanel/pkg/logging"
)

type blacklistPurger interface {
	PurgeExpiredBlacklist(ctx context.Context, now time.Time) (int64, error)
}

// RunBlacklistJanitor drops blacklist rows of already expired tokens every
// interval until ctx is cancelled.
func RunBlacklistJanitor(ctx context.Context, p blacklistPurger, interval time.Duration) {
	l := logging.FromContext(ctx).With("svc", "blacklist.janitor")
	if interval <= 0 {
		l.Info("janitor_disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpiredBlacklist(ctx, now)
			if err != nil {
				l.Warn("blacklist_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("blacklist_purged", "rows", n)
			}
		}
	}
}
