// Package models defines the record schemas of the Lifeline mock backend
// (users, emergency blood requests, and the session pointer) together with
// the request/response DTOs of the HTTP API and the sentinel error kinds
// shared between the storage, service, and transport layers.
package models

import (
	"errors"
	"time"
)

// BloodGroup is one of the eight ABO/Rh blood groups.
type BloodGroup string

// The full set of supported blood groups.
const (
	BloodGroupAPositive  BloodGroup = "A+"
	BloodGroupANegative  BloodGroup = "A-"
	BloodGroupBPositive  BloodGroup = "B+"
	BloodGroupBNegative  BloodGroup = "B-"
	BloodGroupOPositive  BloodGroup = "O+"
	BloodGroupONegative  BloodGroup = "O-"
	BloodGroupABPositive BloodGroup = "AB+"
	BloodGroupABNegative BloodGroup = "AB-"
)

// BloodGroups lists every valid blood group value.
var BloodGroups = []BloodGroup{
	BloodGroupAPositive, BloodGroupANegative,
	BloodGroupBPositive, BloodGroupBNegative,
	BloodGroupOPositive, BloodGroupONegative,
	BloodGroupABPositive, BloodGroupABNegative,
}

// IsValid reports whether the blood group is one of the eight known values.
// The empty value is allowed: the blood group is optional at registration.
func (bg BloodGroup) IsValid() bool {
	if bg == "" {
		return true
	}
	for _, known := range BloodGroups {
		if bg == known {
			return true
		}
	}
	return false
}

// Role distinguishes users who donate blood from users who seek it.
type Role string

// User roles. The role stays empty until the role-selection step.
const (
	RoleDonor  Role = "donor"
	RoleSeeker Role = "seeker"
)

// IsValid reports whether the role is donor, seeker, or still unset.
func (r Role) IsValid() bool {
	return r == "" || r == RoleDonor || r == RoleSeeker
}

// RequestStatus is the lifecycle state of an emergency request.
type RequestStatus string

// Request statuses. A request only moves forward:
// PENDING -> ACCEPTED -> COMPLETED.
const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

// IsValid reports whether the status is one of the three known values.
func (s RequestStatus) IsValid() bool {
	return s == RequestStatusPending || s == RequestStatusAccepted || s == RequestStatusCompleted
}

// CanTransitionTo reports whether moving from s to next is a defined
// transition. There is no transition back.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return next == RequestStatusAccepted
	case RequestStatusAccepted:
		return next == RequestStatusCompleted
	}
	return false
}

// User is a registered participant. The phone number is the unique
// human-facing key; the id is an opaque UUID assigned at creation.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	BloodGroup BloodGroup `json:"bloodGroup,omitempty"`
	Role       Role       `json:"role,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// UserPatch carries the fields of a partial user update. Nil fields are
// left untouched; non-nil fields overwrite the stored value. Patches are
// applied field by field against the fixed schema, there is no dynamic
// shape merging.
type UserPatch struct {
	Name       *string     `json:"name,omitempty"`
	BloodGroup *BloodGroup `json:"bloodGroup,omitempty"`
	Role       *Role       `json:"role,omitempty"`
}

// Apply overwrites the user's fields with the patch's non-nil values.
func (p UserPatch) Apply(usr *User) {
	if p.Name != nil {
		usr.Name = *p.Name
	}
	if p.BloodGroup != nil {
		usr.BloodGroup = *p.BloodGroup
	}
	if p.Role != nil {
		usr.Role = *p.Role
	}
}

// Request is an emergency blood-need broadcast raised by a seeker.
// The id carries the REQ- prefix to keep the id space distinct from users.
type Request struct {
	ID          string        `json:"id"`
	SeekerName  string        `json:"seekerName"`
	SeekerPhone string        `json:"seekerPhone"`
	BloodGroup  BloodGroup    `json:"bloodGroup"`
	Hospital    string        `json:"hospital"`
	Units       int           `json:"units"`
	Location    string        `json:"location"`
	Status      RequestStatus `json:"status"`
	DonorID     string        `json:"donorId,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// RegisterRequest is the payload of POST /api/register.
type RegisterRequest struct {
	Name       string     `json:"name" validate:"required"`
	Phone      string     `json:"phone" validate:"required"`
	BloodGroup BloodGroup `json:"bloodGroup" validate:"omitempty,bloodgroup"`
	Role       Role       `json:"role" validate:"omitempty,oneof=donor seeker"`
}

// LoginRequest is the payload of POST /api/login. The OTP check is a mock:
// any value of exactly four characters is accepted.
type LoginRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

// RaiseRequestRequest is the payload of POST /api/requests. Seeker identity
// and blood group come from the session user, not from the payload.
type RaiseRequestRequest struct {
	Hospital   string     `json:"hospital" validate:"required"`
	Units      int        `json:"units" validate:"required,gt=0"`
	Location   string     `json:"location"`
	BloodGroup BloodGroup `json:"bloodGroup" validate:"omitempty,bloodgroup"`
}

// Toast is a transient notification raised by the application controller
// or the alert dispatcher, with severity "info", "success", or "error".
type Toast struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// DispatchActionRequest is the payload of POST /app/action: a named action
// plus the form fields it consumes.
type DispatchActionRequest struct {
	Action string            `json:"action" validate:"required"`
	Form   map[string]string `json:"form"`
}

// ViewResponse is the rendered state returned by the app surface: the view
// to show, its markup fragment, and the toasts accumulated since the last
// response.
type ViewResponse struct {
	View     string  `json:"view"`
	Fragment string  `json:"fragment"`
	Toasts   []Toast `json:"toasts,omitempty"`
}

// InternalStats is the response of GET /api/internal/stats.
type InternalStats struct {
	Users    int64 `json:"users"`
	Requests int64 `json:"requests"`
}

// DonorAlertJob asks the alert dispatcher to look for donors matching a
// freshly raised emergency request.
type DonorAlertJob struct {
	RequestID  string
	BloodGroup BloodGroup
}

// Error kinds surfaced by the record store operations. The controller and
// the HTTP layer distinguish them with errors.Is.
var (
	// ErrDuplicatePhone is returned when registering a phone number that
	// already belongs to a stored user.
	ErrDuplicatePhone = errors.New("user already exists with this phone number")

	// ErrInvalidOTP is returned when the supplied OTP is not exactly four
	// characters long.
	ErrInvalidOTP = errors.New("invalid OTP")

	// ErrUserNotFound is returned on login with an unregistered phone.
	ErrUserNotFound = errors.New("user not found")

	// ErrValidation is returned when required form fields are missing or
	// malformed.
	ErrValidation = errors.New("validation error")

	// ErrInvalidStatusTransition is returned when a request status update
	// does not follow PENDING -> ACCEPTED -> COMPLETED.
	ErrInvalidStatusTransition = errors.New("invalid request status transition")
)

// Storage backend kinds, selected from configuration.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
