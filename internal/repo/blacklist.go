package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/userpanel/internal/models"
)

// BlacklistToken is idempotent: blacklisting the same hash twice is not an error.
func (r *GormRepo) BlacklistToken(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	entry := models.BlacklistedToken{
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_hash"}}, DoNothing: true}).
		Create(&entry).Error; err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (r *GormRepo) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("token_hash = ?", tokenHash).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return count > 0, nil
}

// PurgeExpiredBlacklist drops entries for tokens that would be rejected as
// expired anyway.
func (r *GormRepo) PurgeExpiredBlacklist(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.BlacklistedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge blacklist: %w", res.Error)
	}
	return res.RowsAffected, nil
}
