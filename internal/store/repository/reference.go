package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/pressbox/internal/store"
)

// ReferenceRepository handles sport and league reference data access
type ReferenceRepository struct {
	db *store.Database
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *store.Database) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// GetOrCreateSport finds a sport by slug, creating it when missing.
func (r *ReferenceRepository) GetOrCreateSport(ctx context.Context, slug, name string) (*store.Sport, error) {
	sport := &store.Sport{}
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT id, slug, name, created_at, updated_at
		FROM sports
		WHERE slug = $1
	`, slug).Scan(&sport.ID, &sport.Slug, &sport.Name, &sport.CreatedAt, &sport.UpdatedAt)
	if err == nil {
		return sport, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("querying sport: %w", err)
	}

	// ON CONFLICT covers a concurrent creator; RETURNING yields the row
	// either way.
	query := `
		INSERT INTO sports (slug, name)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, slug, name, created_at, updated_at
	`
	err = r.db.DB().QueryRowContext(ctx, query, slug, name).Scan(
		&sport.ID, &sport.Slug, &sport.Name, &sport.CreatedAt, &sport.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating sport: %w", err)
	}

	return sport, nil
}

// GetLeague finds a league by sport and league slug.
func (r *ReferenceRepository) GetLeague(ctx context.Context, sportSlug, leagueSlug string) (*store.League, error) {
	league := &store.League{}
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT l.id, l.sport_id, l.slug, l.name, l.abbreviation, l.created_at, l.updated_at, s.slug
		FROM leagues l
		JOIN sports s ON s.id = l.sport_id
		WHERE s.slug = $1 AND l.slug = $2
	`, sportSlug, leagueSlug).Scan(
		&league.ID, &league.SportID, &league.Slug, &league.Name, &league.Abbreviation,
		&league.CreatedAt, &league.UpdatedAt, &league.SportSlug,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("league %s/%s: %w", sportSlug, leagueSlug, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying league: %w", err)
	}

	return league, nil
}

// GetOrCreateLeague finds a league by sport and slug, creating both the
// sport and the league when missing.
func (r *ReferenceRepository) GetOrCreateLeague(ctx context.Context, sportSlug, sportName, leagueSlug, leagueName, abbreviation string) (*store.League, error) {
	sport, err := r.GetOrCreateSport(ctx, sportSlug, sportName)
	if err != nil {
		return nil, err
	}

	league := &store.League{}
	err = r.db.DB().QueryRowContext(ctx, `
		SELECT id, sport_id, slug, name, abbreviation, created_at, updated_at
		FROM leagues
		WHERE sport_id = $1 AND slug = $2
	`, sport.ID, leagueSlug).Scan(
		&league.ID, &league.SportID, &league.Slug, &league.Name, &league.Abbreviation,
		&league.CreatedAt, &league.UpdatedAt,
	)
	if err == nil {
		league.SportSlug = sport.Slug
		return league, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("querying league: %w", err)
	}

	query := `
		INSERT INTO leagues (sport_id, slug, name, abbreviation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sport_id, slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, sport_id, slug, name, abbreviation, created_at, updated_at
	`
	err = r.db.DB().QueryRowContext(ctx, query, sport.ID, leagueSlug, leagueName, abbreviation).Scan(
		&league.ID, &league.SportID, &league.Slug, &league.Name, &league.Abbreviation,
		&league.CreatedAt, &league.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating league: %w", err)
	}

	league.SportSlug = sport.Slug
	return league, nil
}
