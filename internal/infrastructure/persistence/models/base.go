package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the server-generated primary key and timestamp
// columns shared by every quote table.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
