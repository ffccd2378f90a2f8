package models

import (
	"errors"
	"strings"
	"time"
)

// Seat represents a physical seat in a seat group. At most one valid
// ticket occupies a seat, and a ticket occupies at most one seat.
type Seat struct {
	ID        int       `json:"id" db:"id"`
	GroupName string    `json:"group" db:"group_name"`
	Number    int       `json:"number" db:"number"`
	Locked    bool      `json:"locked" db:"locked"`
	TicketID  *int      `json:"ticket_id,omitempty" db:"ticket_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SeatGroupCreateRequest represents a bulk seat group creation
type SeatGroupCreateRequest struct {
	GroupName string `json:"group"`
	Count     int    `json:"count"`
}

// Validate validates seat group creation data
func (req *SeatGroupCreateRequest) Validate() error {
	if strings.TrimSpace(req.GroupName) == "" {
		return errors.New("seat group name is required")
	}

	if len(req.GroupName) > 50 {
		return errors.New("seat group name must be less than 50 characters")
	}

	if req.Count <= 0 {
		return errors.New("seat count must be greater than 0")
	}

	if req.Count > 10000 {
		return errors.New("seat count cannot exceed 10,000")
	}

	return nil
}

// IsTaken returns true if a ticket currently occupies the seat
func (s *Seat) IsTaken() bool {
	return s.TicketID != nil
}

// IsAssignable returns true if the seat can receive a ticket
func (s *Seat) IsAssignable() bool {
	return !s.Locked
}
