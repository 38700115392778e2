package model

import (
	"fmt"
	"strings"
	"time"
)

// Vehicle belongs to a driver and can be attached to service requests.
type Vehicle struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"-"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Color        string    `json:"color"`
	LicensePlate string    `json:"license_plate"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VehicleInput is the create body; VehicleUpdate the partial update body.
type VehicleInput struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
}

type VehicleUpdate struct {
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	Color        *string `json:"color"`
	LicensePlate *string `json:"license_plate"`
}

const minVehicleYear = 1950

// Normalize trims text fields and upper-cases the plate.
func (in *VehicleInput) Normalize() {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Color = strings.TrimSpace(in.Color)
	in.LicensePlate = strings.ToUpper(strings.TrimSpace(in.LicensePlate))
}

// Validate requires make, model, plate and a plausible year.
func (in VehicleInput) Validate(now time.Time) error {
	if in.Make == "" || in.Model == "" {
		return fmt.Errorf("make and model are required")
	}
	if in.LicensePlate == "" {
		return fmt.Errorf("license_plate is required")
	}
	return validateYear(in.Year, now)
}

// Validate checks only the fields that are present.
func (u VehicleUpdate) Validate(now time.Time) error {
	if u.Make != nil && strings.TrimSpace(*u.Make) == "" {
		return fmt.Errorf("make cannot be empty")
	}
	if u.Model != nil && strings.TrimSpace(*u.Model) == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if u.LicensePlate != nil && strings.TrimSpace(*u.LicensePlate) == "" {
		return fmt.Errorf("license_plate cannot be empty")
	}
	if u.Year != nil {
		return validateYear(*u.Year, now)
	}
	return nil
}

// Empty reports whether the update changes nothing.
func (u VehicleUpdate) Empty() bool {
	return u.Make == nil && u.Model == nil && u.Year == nil && u.Color == nil && u.LicensePlate == nil
}

func validateYear(year int, now time.Time) error {
	if year < minVehicleYear || year > now.Year()+1 {
		return fmt.Errorf("year must be between %d and %d", minVehicleYear, now.Year()+1)
	}
	return nil
}
