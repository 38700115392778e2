package model

import (
	"fmt"
	"strings"
	"time"
)

// IssueType is what went wrong with the driver's vehicle.
type IssueType string

const (
	IssueFlatTire      IssueType = "flat-tire"
	IssueDeadBattery   IssueType = "dead-battery"
	IssueEngineTrouble IssueType = "engine-trouble"
	IssueOutOfFuel     IssueType = "out-of-fuel"
	IssueLockedOut     IssueType = "locked-out"
	IssueOther         IssueType = "other"
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueFlatTire, IssueDeadBattery, IssueEngineTrouble, IssueOutOfFuel, IssueLockedOut, IssueOther:
		return true
	}
	return false
}

// ContactMethod is how the driver wants to be reached.
type ContactMethod string

const (
	ContactPhone   ContactMethod = "phone"
	ContactMessage ContactMethod = "message"
)

func (m ContactMethod) Valid() bool {
	return m == ContactPhone || m == ContactMessage
}

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAccepted   RequestStatus = "accepted"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a request may move from s to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceRequest is a driver's call for help.
type ServiceRequest struct {
	ID                uint64        `json:"id"`
	UserID            uint64        `json:"user_id"`
	MechanicID        *uint64       `json:"mechanic_id,omitempty"`
	VehicleID         *uint64       `json:"vehicle_id,omitempty"`
	IssueType         IssueType     `json:"issue_type"`
	Description       string        `json:"description"`
	ContactMethod     ContactMethod `json:"contact_method"`
	PhoneNumber       *string       `json:"phone_number,omitempty"`
	Status            RequestStatus `json:"status"`
	LocationLatitude  *float64      `json:"location_latitude,omitempty"`
	LocationLongitude *float64      `json:"location_longitude,omitempty"`
	LocationAddress   *string       `json:"location_address,omitempty"`
	EstimatedArrival  *int          `json:"estimated_arrival,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ServiceRequestInput is the create body.
type ServiceRequestInput struct {
	MechanicID        *uint64       `json:"mechanic_id"`
	VehicleID         *uint64       `json:"vehicle_id"`
	IssueType         IssueType     `json:"issue_type"`
	Description       string        `json:"description"`
	ContactMethod     ContactMethod `json:"contact_method"`
	PhoneNumber       *string       `json:"phone_number"`
	LocationLatitude  *float64      `json:"location_latitude"`
	LocationLongitude *float64      `json:"location_longitude"`
	LocationAddress   *string       `json:"location_address"`
}

// Validate normalizes and checks the input.  An empty contact method defaults to phone.
func (in *ServiceRequestInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	if in.ContactMethod == "" {
		in.ContactMethod = ContactPhone
	}
	if !in.IssueType.Valid() {
		return fmt.Errorf("invalid issue_type")
	}
	if in.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !in.ContactMethod.Valid() {
		return fmt.Errorf("invalid contact_method")
	}
	if in.ContactMethod == ContactPhone && (in.PhoneNumber == nil || strings.TrimSpace(*in.PhoneNumber) == "") {
		return fmt.Errorf("phone_number is required for phone contact")
	}
	return ValidateCoordinates(in.LocationLatitude, in.LocationLongitude)
}

// EstimateArrival is the minutes a mechanic needs to cover distanceKm,
// matching the estimate shown on search results.
func EstimateArrival(distanceKm float64) int {
	return int(10 + distanceKm*2)
}
