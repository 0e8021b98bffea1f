package specification

import (
	"strings"

	"gorm.io/gorm"

	"github.com/google/uuid"
)

// ByEmail matches case-insensitively; provider payloads do not preserve case.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(s.Email)))
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
