package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Review is a driver's rating of the mechanic who completed their request.
type Review struct {
	ID               uint64    `json:"id"`
	ServiceRequestID uint64    `json:"service_request_id"`
	MechanicID       uint64    `json:"mechanic_id"`
	UserID           uint64    `json:"user_id"`
	Rating           int       `json:"rating"`
	Comment          *string   `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PublicReview omits the reviewer's identity.
type PublicReview struct {
	ID               uint64    `json:"id"`
	ServiceRequestID uint64    `json:"service_request_id"`
	MechanicID       uint64    `json:"mechanic_id"`
	Rating           int       `json:"rating"`
	Comment          *string   `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReviewInput struct {
	ServiceRequestID uint64  `json:"service_request_id"`
	Rating           int     `json:"rating"`
	Comment          *string `json:"comment"`
}

func (in *ReviewInput) Validate() error {
	if in.ServiceRequestID == 0 {
		return fmt.Errorf("service_request_id is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if c == "" {
			in.Comment = nil
		} else {
			in.Comment = &c
		}
	}
	return nil
}

// RoundRating rounds an average to one decimal, the precision of mechanic_profiles.rating.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
