package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"igserve/pkg/database"
	"igserve/pkg/models"
)

// SQLRepository stores countries in the country table
type SQLRepository struct {
	db *database.DB
}

// NewSQLRepository creates a repository over db
func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Country, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM country ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	countries := []models.Country{}
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}

func (r *SQLRepository) FindByName(ctx context.Context, name string) (*models.Country, error) {
	var c models.Country
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT id, name FROM country WHERE name_key = $1"),
		nameKey(name),
	).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find country: %w", err)
	}
	return &c, nil
}

func (r *SQLRepository) Insert(ctx context.Context, name string) (*models.Country, error) {
	c := models.Country{Name: name}
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("INSERT INTO country (name, name_key) VALUES ($1, $2) RETURNING id"),
		name, nameKey(name),
	).Scan(&c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert country: %w", err)
	}
	return &c, nil
}

var _ Repository = (*SQLRepository)(nil)
