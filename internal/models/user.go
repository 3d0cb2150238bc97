package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a device owner. Credentials live with the identity provider, the
// row only exists so devices and locations can reference it.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id" example:"aa22666c-0f57-45cb-a449-16efecc04f2e"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
