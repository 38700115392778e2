package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service keys as they appear in services_offered and in search filters.
const (
	ServiceTowing         = "towing"
	ServiceJumpStart      = "jumpStart"
	ServiceTireFix        = "tireFix"
	ServiceFuelDelivery   = "fuelDelivery"
	ServiceLockoutService = "lockoutService"
	ServiceBasicRepair    = "basicRepair"
)

// ServiceKeys lists every service in display order.
var ServiceKeys = []string{
	ServiceTowing,
	ServiceJumpStart,
	ServiceTireFix,
	ServiceFuelDelivery,
	ServiceLockoutService,
	ServiceBasicRepair,
}

// Services records which roadside services a mechanic offers.
type Services struct {
	Towing         bool `json:"towing"`
	JumpStart      bool `json:"jumpStart"`
	TireFix        bool `json:"tireFix"`
	FuelDelivery   bool `json:"fuelDelivery"`
	LockoutService bool `json:"lockoutService"`
	BasicRepair    bool `json:"basicRepair"`
}

// Map returns the services keyed by service key.
func (s Services) Map() map[string]bool {
	return map[string]bool{
		ServiceTowing:         s.Towing,
		ServiceJumpStart:      s.JumpStart,
		ServiceTireFix:        s.TireFix,
		ServiceFuelDelivery:   s.FuelDelivery,
		ServiceLockoutService: s.LockoutService,
		ServiceBasicRepair:    s.BasicRepair,
	}
}

// DayHours is one day of a mechanic's opening hours ("08:00" style clock strings).
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// BusinessHours maps lower-case weekday names to opening hours.
type BusinessHours map[string]DayHours

// DefaultBusinessHours is assigned to new mechanic profiles.
func DefaultBusinessHours() BusinessHours {
	weekday := DayHours{Open: "08:00", Close: "18:00"}
	return BusinessHours{
		"monday":    weekday,
		"tuesday":   weekday,
		"wednesday": weekday,
		"thursday":  weekday,
		"friday":    weekday,
		"saturday":  {Open: "08:00", Close: "16:00"},
		"sunday":    {Open: "10:00", Close: "14:00"},
	}
}

// Defaults applied when a mechanic profile is created.
const (
	DefaultMechanicRating       = 5.0
	DefaultMechanicResponseTime = 15
	UnnamedBusiness             = "Business Name Required"
)

// MechanicProfile is a service provider record.  Latitude/Longitude are nil
// until the mechanic sets a location; such profiles never appear in nearby search.
type MechanicProfile struct {
	ID                  uint64        `json:"id"`
	UserID              uint64        `json:"user_id"`
	MechanicID          string        `json:"mechanic_id"`
	BusinessName        string        `json:"business_name"`
	Phone               *string       `json:"phone,omitempty"`
	Bio                 *string       `json:"bio,omitempty"`
	Address             *string       `json:"address,omitempty"`
	Latitude            *float64      `json:"latitude,omitempty"`
	Longitude           *float64      `json:"longitude,omitempty"`
	ServicesOffered     Services      `json:"services_offered"`
	BusinessHours       BusinessHours `json:"business_hours"`
	Rating              float64       `json:"rating"`
	ReviewCount         int           `json:"review_count"`
	IsAvailable         bool          `json:"is_available"`
	AverageResponseTime int           `json:"average_response_time"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// HasLocation reports whether both coordinates are set.
func (m *MechanicProfile) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Public strips contact details and coordinates for unauthenticated callers.
func (m *MechanicProfile) Public() PublicMechanic {
	return PublicMechanic{
		ID:                  m.ID,
		MechanicID:          m.MechanicID,
		BusinessName:        m.BusinessName,
		Bio:                 m.Bio,
		ServicesOffered:     m.ServicesOffered,
		BusinessHours:       m.BusinessHours,
		Rating:              m.Rating,
		ReviewCount:         m.ReviewCount,
		IsAvailable:         m.IsAvailable,
		AverageResponseTime: m.AverageResponseTime,
	}
}

// PublicMechanic is the unauthenticated view of a mechanic profile.
type PublicMechanic struct {
	ID                  uint64        `json:"id"`
	MechanicID          string        `json:"mechanic_id"`
	BusinessName        string        `json:"business_name"`
	Bio                 *string       `json:"bio,omitempty"`
	ServicesOffered     Services      `json:"services_offered"`
	BusinessHours       BusinessHours `json:"business_hours"`
	Rating              float64       `json:"rating"`
	ReviewCount         int           `json:"review_count"`
	IsAvailable         bool          `json:"is_available"`
	AverageResponseTime int           `json:"average_response_time"`
}

// MechanicInput is the body accepted when a mechanic creates their profile.
type MechanicInput struct {
	BusinessName  string         `json:"business_name"`
	Phone         *string        `json:"phone"`
	Bio           *string        `json:"bio"`
	Address       *string        `json:"address"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	Services      Services       `json:"services_offered"`
	BusinessHours *BusinessHours `json:"business_hours"`
}

// NewMechanicProfile applies creation defaults to in for userID.
func NewMechanicProfile(userID uint64, in MechanicInput) *MechanicProfile {
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		name = UnnamedBusiness
	}
	hours := DefaultBusinessHours()
	if in.BusinessHours != nil && len(*in.BusinessHours) > 0 {
		hours = *in.BusinessHours
	}
	return &MechanicProfile{
		UserID:              userID,
		MechanicID:          NewMechanicPublicID(),
		BusinessName:        name,
		Phone:               in.Phone,
		Bio:                 in.Bio,
		Address:             in.Address,
		Latitude:            in.Latitude,
		Longitude:           in.Longitude,
		ServicesOffered:     in.Services,
		BusinessHours:       hours,
		Rating:              DefaultMechanicRating,
		ReviewCount:         0,
		IsAvailable:         true,
		AverageResponseTime: DefaultMechanicResponseTime,
	}
}

// MechanicUpdate is a partial update of a mechanic profile; nil fields are untouched.
type MechanicUpdate struct {
	BusinessName        *string        `json:"business_name"`
	Phone               *string        `json:"phone"`
	Bio                 *string        `json:"bio"`
	Address             *string        `json:"address"`
	Latitude            *float64       `json:"latitude"`
	Longitude           *float64       `json:"longitude"`
	ServicesOffered     *Services      `json:"services_offered"`
	BusinessHours       *BusinessHours `json:"business_hours"`
	IsAvailable         *bool          `json:"is_available"`
	AverageResponseTime *int           `json:"average_response_time"`
}

// Validate checks coordinate ranges and numeric bounds.
func (u MechanicUpdate) Validate() error {
	if u.BusinessName != nil && strings.TrimSpace(*u.BusinessName) == "" {
		return fmt.Errorf("business_name cannot be empty")
	}
	if err := ValidateCoordinates(u.Latitude, u.Longitude); err != nil {
		return err
	}
	if u.AverageResponseTime != nil && *u.AverageResponseTime <= 0 {
		return fmt.Errorf("average_response_time must be positive")
	}
	return nil
}

// ValidateCoordinates accepts nil pairs and rejects half-set or out of range pairs.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude out of range")
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("longitude out of range")
	}
	return nil
}

// NewMechanicPublicID returns an identifier like RR-1A2B3C4D shown to drivers.
func NewMechanicPublicID() string {
	id := uuid.New()
	return "RR-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// MarshalJSONColumn and UnmarshalJSONColumn move JSON columns in and out of
// database/sql.  A NULL or empty column leaves dst untouched.
func MarshalJSONColumn(v any) ([]byte, error) {
	return json.Marshal(v)
}

func UnmarshalJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
