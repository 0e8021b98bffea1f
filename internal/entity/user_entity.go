// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is read from the identity store; this service never writes it.
type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}
