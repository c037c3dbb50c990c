// Package service implements the record-keeping operations of the mock
// backend: user registration and login, the single client session, and the
// emergency request lifecycle. It owns the business rules (duplicate phone
// detection, the mock OTP contract, status transitions) while persistence
// stays behind the storage interfaces.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// requestIDPrefix keeps the request id space distinct from user ids.
const requestIDPrefix = "REQ-"

// otpLength is the mock OTP contract: any value of exactly this many
// characters is accepted. There is no real verification behind it.
const otpLength = 4

type userKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) error
	FindUserByPhone(ctx context.Context, phone string) (*models.User, bool, error)
	UpdateUser(ctx context.Context, usr *models.User) (bool, error)
}

type sessionKeeper interface {
	SaveSession(ctx context.Context, usr *models.User) error
	GetSession(ctx context.Context) (*models.User, bool, error)
	ClearSession(ctx context.Context) error
}

type requestKeeper interface {
	InsertRequest(ctx context.Context, req *models.Request) error
	FindRequestByID(ctx context.Context, id string) (*models.Request, bool, error)
	UpdateRequest(ctx context.Context, req *models.Request) (bool, error)
	ListRequests(ctx context.Context) ([]models.Request, error)
}

type counter interface {
	CountUsers(ctx context.Context) (int64, error)
	CountRequests(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	sessionKeeper
	requestKeeper
	counter
	pinger
}

// RegisterData carries the fields collected by the registration form.
type RegisterData struct {
	Name       string
	Phone      string
	BloodGroup models.BloodGroup
	Role       models.Role
}

// RequestData carries the fields of a new emergency request.
type RequestData struct {
	SeekerName  string
	SeekerPhone string
	BloodGroup  models.BloodGroup
	Hospital    string
	Units       int
	Location    string
}

// Service exposes the record store operations over a storage backend.
type Service struct {
	db storage
}

// New returns a Service backed by the given storage.
func New(db storage) *Service {
	return &Service{db: db}
}

// RegisterUser creates a new user record, assigns a fresh id and creation
// timestamp, and sets the new user as the current session. Fails with
// models.ErrDuplicatePhone when the phone number is already taken; the
// users collection is left unchanged in that case.
func (s *Service) RegisterUser(ctx context.Context, data RegisterData) (*models.User, error) {
	_, exists, err := s.db.FindUserByPhone(ctx, data.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicatePhone
	}

	usr := &models.User{
		ID:         uuid.New().String(),
		Name:       data.Name,
		Phone:      data.Phone,
		BloodGroup: data.BloodGroup,
		Role:       data.Role,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.db.CreateUser(ctx, usr); err != nil {
		return nil, err
	}

	if err := s.db.SaveSession(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// LoginUser authenticates a user by phone. The OTP check is a mock: any
// value of exactly four characters passes, anything else fails with
// models.ErrInvalidOTP regardless of the phone. An unregistered phone
// fails with models.ErrUserNotFound. On success the user becomes the
// current session.
func (s *Service) LoginUser(ctx context.Context, phone, otp string) (*models.User, error) {
	if len(otp) != otpLength {
		return nil, models.ErrInvalidOTP
	}

	usr, found, err := s.db.FindUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}

	if err := s.db.SaveSession(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// GetCurrentUser returns the session user, or found == false when nobody
// is logged in. Pure read, no side effect.
func (s *Service) GetCurrentUser(ctx context.Context) (*models.User, bool, error) {
	return s.db.GetSession(ctx)
}

// UpdateUser applies the patch to the session user field by field and
// persists the result both in the users collection and in the session.
// Without a session it is a no-op returning no user. An unknown session id
// is also a silent no-op; it should not occur under single-writer use.
func (s *Service) UpdateUser(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	usr, found, err := s.db.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	patch.Apply(usr)

	matched, err := s.db.UpdateUser(ctx, usr)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, nil
	}

	if err := s.db.SaveSession(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// Logout clears the session pointer only; user records remain.
func (s *Service) Logout(ctx context.Context) error {
	return s.db.ClearSession(ctx)
}

// CreateRequest stores a new emergency request with a fresh prefixed id,
// PENDING status, and a creation timestamp. Field completeness is the
// caller's responsibility at this layer.
func (s *Service) CreateRequest(ctx context.Context, data RequestData) (*models.Request, error) {
	req := &models.Request{
		ID:          requestIDPrefix + uuid.New().String(),
		SeekerName:  data.SeekerName,
		SeekerPhone: data.SeekerPhone,
		BloodGroup:  data.BloodGroup,
		Hospital:    data.Hospital,
		Units:       data.Units,
		Location:    data.Location,
		Status:      models.RequestStatusPending,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.db.InsertRequest(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// GetRequests returns all requests newest-first. Pure read.
func (s *Service) GetRequests(ctx context.Context) ([]models.Request, error) {
	requests, err := s.db.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	return funk.Reverse(requests).([]models.Request), nil
}

// UpdateRequestStatus moves the request to the given status, optionally
// recording the accepting donor. An unknown id is a soft miss: the method
// returns found == false and the collection stays unchanged. A transition
// that does not follow PENDING -> ACCEPTED -> COMPLETED fails with
// models.ErrInvalidStatusTransition.
func (s *Service) UpdateRequestStatus(
	ctx context.Context,
	requestID string,
	status models.RequestStatus,
	donorID string,
) (*models.Request, bool, error) {
	req, found, err := s.db.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if !req.Status.CanTransitionTo(status) {
		return nil, true, models.ErrInvalidStatusTransition
	}

	req.Status = status
	if donorID != "" {
		req.DonorID = donorID
	}

	matched, err := s.db.UpdateRequest(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if !matched {
		return nil, false, nil
	}

	return req, true, nil
}

// GetInternalStats returns the sizes of the two record collections.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStats, error) {
	users, err := s.db.CountUsers(ctx)
	if err != nil {
		return models.InternalStats{}, err
	}

	requests, err := s.db.CountRequests(ctx)
	if err != nil {
		return models.InternalStats{}, err
	}

	return models.InternalStats{
		Users:    users,
		Requests: requests,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
