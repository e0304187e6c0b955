package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enum constants
const (
	RoleOwner    = "owner"
	RoleMechanic = "mechanic"
)

// User is an authenticated account. The ledger core never reads users; they
// only exist so the API layer can hand out {userId, role} tokens.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name"`
	Password    string    `gorm:"type:varchar(255);not null" json:"-"`
	Role        string    `gorm:"type:varchar(20);not null;default:'mechanic'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
