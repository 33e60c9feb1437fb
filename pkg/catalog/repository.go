package catalog

import (
	"context"
	"errors"

	"igserve/pkg/models"
)

// Errors returned by repositories
var (
	ErrNotFound      = errors.New("country not found")
	ErrAlreadyExists = errors.New("country already exists")
)

// Repository stores countries
type Repository interface {
	// List returns every country ordered by id
	List(ctx context.Context) ([]models.Country, error)

	// FindByName looks a country up by name, ignoring case.
	// It returns ErrNotFound when there is no match.
	FindByName(ctx context.Context, name string) (*models.Country, error)

	// Insert stores a new country and returns it with its assigned id.
	// It returns ErrAlreadyExists when the name collides.
	Insert(ctx context.Context, name string) (*models.Country, error)
}
