// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/susu/internal/models"
)

var (
	// ErrNotFound is returned when a group or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by SaveGroup when the group changed since
	// it was loaded.
	ErrVersionConflict = errors.New("group was modified concurrently")
)

// Store defines the interface for group and user storage operations.
// A group is stored together with its members, pending requests and payments,
// and SaveGroup replaces all of them in one transaction.
type Store interface {
	// CreateGroup persists a new group. The group.ID and CreatedAt fields are
	// populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID, including members, requests and payments.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns every group the user is a member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// SaveGroup writes all mutable group state if group.Version still matches
	// the stored version, then increments group.Version.
	SaveGroup(ctx context.Context, group *models.Group) error

	// GetGroupByPaymentReference returns the group owning the payment.
	GetGroupByPaymentReference(ctx context.Context, reference string) (*models.Group, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
