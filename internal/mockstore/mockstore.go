// Package mockstore provides a testify-based mock implementation of the
// storage contract for unit testing HTTP handlers and the service layer.
package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// StorageMock is a testify mock implementing the full storage surface.
type StorageMock struct {
	mock.Mock

	// OnCountUsers optionally overrides CountUsers. When set the method
	// delegates to it instead of testify's generic handler.
	OnCountUsers func(ctx context.Context) (int64, error)

	// OnCountRequests optionally overrides CountRequests, same way.
	OnCountRequests func(ctx context.Context) (int64, error)
}

// CreateUser mocks appending a user record.
func (m *StorageMock) CreateUser(ctx context.Context, usr *models.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// FindUserByPhone mocks the phone-uniqueness lookup.
func (m *StorageMock) FindUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	args := m.Called(ctx, phone)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks fetching a user by id.
func (m *StorageMock) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// UpdateUser mocks persisting a modified user.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *models.User) (bool, error) {
	args := m.Called(ctx, usr)
	return args.Bool(0), args.Error(1)
}

// CountUsers returns the user count defined by the mock.
func (m *StorageMock) CountUsers(ctx context.Context) (int64, error) {
	if m.OnCountUsers != nil {
		return m.OnCountUsers(ctx)
	}
	return 0, nil
}

// CountDonorsByBloodGroup mocks the donor counter used by alerts.
func (m *StorageMock) CountDonorsByBloodGroup(
	ctx context.Context,
	bloodGroup models.BloodGroup,
) (int64, error) {
	args := m.Called(ctx, bloodGroup)
	return args.Get(0).(int64), args.Error(1)
}

// SaveSession mocks setting the current session user.
func (m *StorageMock) SaveSession(ctx context.Context, usr *models.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// GetSession mocks reading the current session user.
func (m *StorageMock) GetSession(ctx context.Context) (*models.User, bool, error) {
	args := m.Called(ctx)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// ClearSession mocks dropping the session pointer.
func (m *StorageMock) ClearSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// InsertRequest mocks appending a blood request.
func (m *StorageMock) InsertRequest(ctx context.Context, req *models.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// FindRequestByID mocks fetching a request by id.
func (m *StorageMock) FindRequestByID(ctx context.Context, id string) (*models.Request, bool, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.Request)
	return req, args.Bool(1), args.Error(2)
}

// UpdateRequest mocks persisting a modified request.
func (m *StorageMock) UpdateRequest(ctx context.Context, req *models.Request) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

// ListRequests mocks listing requests in insertion order.
func (m *StorageMock) ListRequests(ctx context.Context) ([]models.Request, error) {
	args := m.Called(ctx)
	reqs, _ := args.Get(0).([]models.Request)
	return reqs, args.Error(1)
}

// CountRequests returns the request count defined by the mock.
func (m *StorageMock) CountRequests(ctx context.Context) (int64, error) {
	if m.OnCountRequests != nil {
		return m.OnCountRequests(ctx)
	}
	return 0, nil
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the backend.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
