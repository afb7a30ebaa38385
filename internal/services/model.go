// Package services exposes the read-only clinic service catalog.
package services

import (
	"time"

	"github.com/google/uuid"
)

// Service is one catalog entry the clinic offers for booking.
type Service struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Duration    int       `json:"duration_minutes"`
	Category    *string   `json:"category,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
