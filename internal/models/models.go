package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	Username     string    `gorm:"size:128;uniqueIndex;not null"  json:"username"`
	Email        string    `gorm:"size:254;uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	IsActive     bool      `gorm:"not null"                       json:"is_active"`
	IsAdmin      bool      `gorm:"not null;default:false"         json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BlacklistedToken records a session token spent at logout. Only the sha256
// of the raw token is stored.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"            json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (BlacklistedToken) TableName() string { return "blacklisted_tokens" }

// All lists every model that AutoMigrate manages.
func All() []any {
	return []any{&User{}, &BlacklistedToken{}}
}
