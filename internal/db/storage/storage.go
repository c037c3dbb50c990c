// Package storage declares the full persistence contract shared by the
// memory, JSON-file, and PostgreSQL backends. Consumers declare their own
// narrow interfaces; Storage is the union the backends implement.
package storage

import (
	"context"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// Storage is the complete backend surface: the users collection, the
// requests collection, the singleton session pointer, and a few counters.
type Storage interface {
	CreateUser(ctx context.Context, usr *models.User) error

	FindUserByPhone(ctx context.Context, phone string) (*models.User, bool, error)

	FindUserByID(ctx context.Context, id string) (*models.User, bool, error)

	// UpdateUser persists the user matched by id. The returned flag is
	// false when no stored user has that id.
	UpdateUser(ctx context.Context, usr *models.User) (bool, error)

	CountUsers(ctx context.Context) (int64, error)

	CountDonorsByBloodGroup(ctx context.Context, bloodGroup models.BloodGroup) (int64, error)

	// SaveSession sets usr as the current session user. At most one
	// session exists per client instance.
	SaveSession(ctx context.Context, usr *models.User) error

	GetSession(ctx context.Context) (*models.User, bool, error)

	ClearSession(ctx context.Context) error

	InsertRequest(ctx context.Context, req *models.Request) error

	FindRequestByID(ctx context.Context, id string) (*models.Request, bool, error)

	// UpdateRequest persists the request matched by id. The returned flag
	// is false when no stored request has that id.
	UpdateRequest(ctx context.Context, req *models.Request) (bool, error)

	// ListRequests returns all requests in insertion order.
	ListRequests(ctx context.Context) ([]models.Request, error)

	CountRequests(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
