package config

import "fmt"

func MustNonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func MustNonEmptyBytes(value []byte, envName string) error {
	if len(value) == 0 {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

// ValidateServe checks what the HTTP server cannot start without.
func (c Config) ValidateServe() error {
	if err := MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET"); err != nil {
		return err
	}
	if err := MustNonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
		return err
	}
	return MustNonEmpty(c.AdminPassword, "ADMIN_PASSWORD")
}
