package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/pressbox/internal/store"
)

// AthleteRepository handles athlete data access
type AthleteRepository struct {
	db *store.Database
}

// NewAthleteRepository creates a new athlete repository
func NewAthleteRepository(db *store.Database) *AthleteRepository {
	return &AthleteRepository{db: db}
}

// Upsert creates or updates an athlete by ESPN id. The returned flag is
// true when a new row was inserted.
func (r *AthleteRepository) Upsert(ctx context.Context, athlete *store.Athlete) (bool, error) {
	query := `
		INSERT INTO athletes (espn_id, team_id, first_name, last_name, full_name,
			display_name, short_name, jersey, position, position_abbreviation,
			height, weight, age, headshot_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (espn_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			full_name = EXCLUDED.full_name,
			display_name = EXCLUDED.display_name,
			short_name = EXCLUDED.short_name,
			jersey = EXCLUDED.jersey,
			position = EXCLUDED.position,
			position_abbreviation = EXCLUDED.position_abbreviation,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			age = EXCLUDED.age,
			headshot_url = EXCLUDED.headshot_url,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.DB().QueryRowContext(ctx, query,
		athlete.ESPNID, athlete.TeamID, athlete.FirstName, athlete.LastName,
		athlete.FullName, athlete.DisplayName, athlete.ShortName, athlete.Jersey,
		athlete.Position, athlete.PositionAbbreviation, athlete.Height,
		athlete.Weight, athlete.Age, athlete.HeadshotURL, athlete.IsActive,
	).Scan(&athlete.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upserting athlete: %w", err)
	}

	return inserted, nil
}

// ListByTeam returns a team's athletes ordered by last name.
func (r *AthleteRepository) ListByTeam(ctx context.Context, teamID int) ([]*store.Athlete, error) {
	query := `
		SELECT id, espn_id, team_id, first_name, last_name, full_name, display_name,
			short_name, jersey, position, position_abbreviation, height, weight, age,
			headshot_url, is_active, created_at, updated_at
		FROM athletes
		WHERE team_id = $1
		ORDER BY last_name, first_name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying athletes: %w", err)
	}
	defer rows.Close()

	athletes := []*store.Athlete{}
	for rows.Next() {
		athlete := &store.Athlete{}
		if err := rows.Scan(
			&athlete.ID, &athlete.ESPNID, &athlete.TeamID, &athlete.FirstName,
			&athlete.LastName, &athlete.FullName, &athlete.DisplayName, &athlete.ShortName,
			&athlete.Jersey, &athlete.Position, &athlete.PositionAbbreviation,
			&athlete.Height, &athlete.Weight, &athlete.Age, &athlete.HeadshotURL,
			&athlete.IsActive, &athlete.CreatedAt, &athlete.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning athlete: %w", err)
		}
		athletes = append(athletes, athlete)
	}

	return athletes, rows.Err()
}
