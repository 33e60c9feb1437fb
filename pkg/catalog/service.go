// Package catalog serves the country table and the fixed list of states.
package catalog

import (
	"context"
	"errors"
	"strings"

	apperrors "igserve/pkg/errors"
	"igserve/pkg/logger"
	"igserve/pkg/models"
)

// Service applies the country rules on top of a Repository
type Service struct {
	repo   Repository
	logger logger.Logger
}

// NewService creates a Service
func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{repo: repo, logger: log}
}

// List returns all countries in creation order
func (s *Service) List(ctx context.Context) ([]models.Country, error) {
	countries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to list countries", err)
	}
	return countries, nil
}

// Create stores a country. Names are trimmed and must be unique ignoring case.
func (s *Service) Create(ctx context.Context, name string) (*models.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.MissingInput("Country name is required")
	}

	_, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil, apperrors.Duplicate("Country already exists")
	case !errors.Is(err, ErrNotFound):
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to look up country", err)
	}

	country, err := s.repo.Insert(ctx, name)
	if errors.Is(err, ErrAlreadyExists) {
		return nil, apperrors.Duplicate("Country already exists")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to add country", err)
	}

	s.logger.InfoWithFields("country added", map[string]interface{}{
		"id":   country.ID,
		"name": country.Name,
	})
	return country, nil
}

// States returns the list of Indian states and union territories
func (s *Service) States() []string {
	return States()
}
