package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/pressbox/internal/store"
)

// TeamRepository handles team data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// TeamFilter narrows List and Count results. Zero values mean the
// dimension is not filtered.
type TeamFilter struct {
	Sport        string
	League       string
	Search       string
	Abbreviation string
	IsActive     *bool
}

// where builds the WHERE clause and args for the filter. Placeholders
// are numbered from 1; callers append their own args after these.
func (f TeamFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Sport != "" {
		args = append(args, f.Sport)
		clauses = append(clauses, fmt.Sprintf("LOWER(s.slug) = LOWER($%d)", len(args)))
	}
	if f.League != "" {
		args = append(args, f.League)
		clauses = append(clauses, fmt.Sprintf("LOWER(l.slug) = LOWER($%d)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(t.display_name ILIKE $%d OR t.abbreviation ILIKE $%d OR t.location ILIKE $%d OR t.name ILIKE $%d)",
			n, n, n, n))
	}
	if f.Abbreviation != "" {
		args = append(args, f.Abbreviation)
		clauses = append(clauses, fmt.Sprintf("LOWER(t.abbreviation) = LOWER($%d)", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		clauses = append(clauses, fmt.Sprintf("t.is_active = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Upsert creates or updates a team by its ESPN id within a league. The
// returned flag is true when a new row was inserted; xmax is 0 only for
// rows created by the current statement.
func (r *TeamRepository) Upsert(ctx context.Context, team *store.Team) (bool, error) {
	query := `
		INSERT INTO teams (league_id, espn_id, uid, slug, abbreviation, display_name,
			short_display_name, name, nickname, location, color, alternate_color,
			logo_url, logos, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (league_id, espn_id) DO UPDATE SET
			uid = EXCLUDED.uid,
			slug = EXCLUDED.slug,
			abbreviation = EXCLUDED.abbreviation,
			display_name = EXCLUDED.display_name,
			short_display_name = EXCLUDED.short_display_name,
			name = EXCLUDED.name,
			nickname = EXCLUDED.nickname,
			location = EXCLUDED.location,
			color = EXCLUDED.color,
			alternate_color = EXCLUDED.alternate_color,
			logo_url = EXCLUDED.logo_url,
			logos = EXCLUDED.logos,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.DB().QueryRowContext(ctx, query,
		team.LeagueID, team.ESPNID, team.UID, team.Slug, team.Abbreviation,
		team.DisplayName, team.ShortDisplayName, team.Name, team.Nickname,
		team.Location, team.Color, team.AlternateColor, team.LogoURL, team.Logos,
		team.IsActive,
	).Scan(&team.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upserting team: %w", err)
	}

	return inserted, nil
}

// GetByID finds a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID int) (*store.Team, error) {
	query := `
		SELECT t.id, t.league_id, t.espn_id, t.uid, t.slug, t.abbreviation, t.display_name,
			t.short_display_name, t.name, t.nickname, t.location, t.color, t.alternate_color,
			t.logo_url, t.logos, t.is_active, t.created_at, t.updated_at,
			l.slug, s.slug
		FROM teams t
		JOIN leagues l ON l.id = t.league_id
		JOIN sports s ON s.id = l.sport_id
		WHERE t.id = $1
	`

	team := &store.Team{}
	err := r.db.DB().QueryRowContext(ctx, query, teamID).Scan(
		&team.ID, &team.LeagueID, &team.ESPNID, &team.UID, &team.Slug,
		&team.Abbreviation, &team.DisplayName, &team.ShortDisplayName, &team.Name,
		&team.Nickname, &team.Location, &team.Color, &team.AlternateColor,
		&team.LogoURL, &team.Logos, &team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		&team.LeagueSlug, &team.SportSlug,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", teamID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// GetByESPNID finds a team by its ESPN id. ESPN ids are unique within a
// league; if two leagues collide the oldest row wins.
func (r *TeamRepository) GetByESPNID(ctx context.Context, espnID string) (*store.Team, error) {
	query := `
		SELECT t.id, t.league_id, t.espn_id, t.uid, t.slug, t.abbreviation, t.display_name,
			t.short_display_name, t.name, t.nickname, t.location, t.color, t.alternate_color,
			t.logo_url, t.logos, t.is_active, t.created_at, t.updated_at,
			l.slug, s.slug
		FROM teams t
		JOIN leagues l ON l.id = t.league_id
		JOIN sports s ON s.id = l.sport_id
		WHERE t.espn_id = $1
		ORDER BY t.id
		LIMIT 1
	`

	team := &store.Team{}
	err := r.db.DB().QueryRowContext(ctx, query, espnID).Scan(
		&team.ID, &team.LeagueID, &team.ESPNID, &team.UID, &team.Slug,
		&team.Abbreviation, &team.DisplayName, &team.ShortDisplayName, &team.Name,
		&team.Nickname, &team.Location, &team.Color, &team.AlternateColor,
		&team.LogoURL, &team.Logos, &team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		&team.LeagueSlug, &team.SportSlug,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team espn_id %s: %w", espnID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// GetByLeagueAndESPNID finds a team by its ESPN id within one league.
func (r *TeamRepository) GetByLeagueAndESPNID(ctx context.Context, leagueID int, espnID string) (*store.Team, error) {
	query := `
		SELECT id, league_id, espn_id, uid, slug, abbreviation, display_name,
			short_display_name, name, nickname, location, color, alternate_color,
			logo_url, logos, is_active, created_at, updated_at
		FROM teams
		WHERE league_id = $1 AND espn_id = $2
	`

	team := &store.Team{}
	err := r.db.DB().QueryRowContext(ctx, query, leagueID, espnID).Scan(
		&team.ID, &team.LeagueID, &team.ESPNID, &team.UID, &team.Slug,
		&team.Abbreviation, &team.DisplayName, &team.ShortDisplayName, &team.Name,
		&team.Nickname, &team.Location, &team.Color, &team.AlternateColor,
		&team.LogoURL, &team.Logos, &team.IsActive, &team.CreatedAt, &team.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team espn_id %s: %w", espnID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// List returns teams matching the filter, ordered by display name.
func (r *TeamRepository) List(ctx context.Context, filter TeamFilter, limit, offset int) ([]*store.Team, error) {
	where, args := filter.where()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT t.id, t.league_id, t.espn_id, t.uid, t.slug, t.abbreviation, t.display_name,
			t.short_display_name, t.name, t.nickname, t.location, t.color, t.alternate_color,
			t.logo_url, t.logos, t.is_active, t.created_at, t.updated_at,
			l.slug, s.slug
		FROM teams t
		JOIN leagues l ON l.id = t.league_id
		JOIN sports s ON s.id = l.sport_id%s
		ORDER BY t.display_name, t.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	teams := []*store.Team{}
	for rows.Next() {
		team := &store.Team{}
		if err := rows.Scan(
			&team.ID, &team.LeagueID, &team.ESPNID, &team.UID, &team.Slug,
			&team.Abbreviation, &team.DisplayName, &team.ShortDisplayName, &team.Name,
			&team.Nickname, &team.Location, &team.Color, &team.AlternateColor,
			&team.LogoURL, &team.Logos, &team.IsActive, &team.CreatedAt, &team.UpdatedAt,
			&team.LeagueSlug, &team.SportSlug,
		); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// Count returns the number of teams matching the filter.
func (r *TeamRepository) Count(ctx context.Context, filter TeamFilter) (int, error) {
	where, args := filter.where()

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM teams t
		JOIN leagues l ON l.id = t.league_id
		JOIN sports s ON s.id = l.sport_id%s
	`, where)

	var count int
	if err := r.db.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting teams: %w", err)
	}

	return count, nil
}
