package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/pressbox/internal/store"
)

// VenueRepository handles venue data access
type VenueRepository struct {
	db *store.Database
}

// NewVenueRepository creates a new venue repository
func NewVenueRepository(db *store.Database) *VenueRepository {
	return &VenueRepository{db: db}
}

// Upsert creates or updates a venue by its ESPN id and fills in the
// row id on the given venue.
func (r *VenueRepository) Upsert(ctx context.Context, venue *store.Venue) error {
	query := `
		INSERT INTO venues (espn_id, name, city, state, country, is_indoor, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (espn_id) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			country = EXCLUDED.country,
			is_indoor = EXCLUDED.is_indoor,
			capacity = EXCLUDED.capacity,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		venue.ESPNID, venue.Name, venue.City, venue.State, venue.Country,
		venue.IsIndoor, venue.Capacity,
	).Scan(&venue.ID)
	if err != nil {
		return fmt.Errorf("upserting venue: %w", err)
	}

	return nil
}

// GetByID finds a venue by ID
func (r *VenueRepository) GetByID(ctx context.Context, venueID int) (*store.Venue, error) {
	query := `
		SELECT id, espn_id, name, city, state, country, is_indoor, capacity, created_at, updated_at
		FROM venues
		WHERE id = $1
	`

	venue := &store.Venue{}
	err := r.db.DB().QueryRowContext(ctx, query, venueID).Scan(
		&venue.ID, &venue.ESPNID, &venue.Name, &venue.City, &venue.State,
		&venue.Country, &venue.IsIndoor, &venue.Capacity,
		&venue.CreatedAt, &venue.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("venue %d: %w", venueID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying venue: %w", err)
	}

	return venue, nil
}
