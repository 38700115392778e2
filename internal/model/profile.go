package model

import "time"

// UserType is the mode a person uses the app in.
type UserType string

const (
	UserTypeDriver   UserType = "driver"
	UserTypeMechanic UserType = "mechanic"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeDriver || t == UserTypeMechanic
}

// Role returns the JWT role matching the user type.
func (t UserType) Role() string {
	if t == UserTypeMechanic {
		return RoleMechanic
	}
	return RoleDriver
}

// UserTypeForRole is the inverse of UserType.Role.
func UserTypeForRole(role string) UserType {
	if role == RoleMechanic {
		return UserTypeMechanic
	}
	return UserTypeDriver
}

// Profile is the per-user record created on signup.  Exactly one exists per user.
type Profile struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UserType  UserType  `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.AvatarURL == nil
}
