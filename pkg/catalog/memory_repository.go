package catalog

import (
	"context"
	"sync"

	"igserve/pkg/models"
)

// MemoryRepository keeps countries in process memory
type MemoryRepository struct {
	mu        sync.RWMutex
	countries []models.Country
	nextID    int64
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Country, len(r.countries))
	copy(out, r.countries)
	return out, nil
}

func (r *MemoryRepository) FindByName(ctx context.Context, name string) (*models.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(name)
}

func (r *MemoryRepository) Insert(ctx context.Context, name string) (*models.Country, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.find(name); err == nil {
		return nil, ErrAlreadyExists
	}

	c := models.Country{ID: r.nextID, Name: name}
	r.nextID++
	r.countries = append(r.countries, c)
	return &c, nil
}

func (r *MemoryRepository) find(name string) (*models.Country, error) {
	key := nameKey(name)
	for _, c := range r.countries {
		if nameKey(c.Name) == key {
			found := c
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

var _ Repository = (*MemoryRepository)(nil)
