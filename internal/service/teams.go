package service

import (
	"context"
	"fmt"

	"github.com/fortuna/pressbox/internal/store"
	"github.com/fortuna/pressbox/internal/store/repository"
)

// TeamService handles team queries
type TeamService struct {
	teamRepo    *repository.TeamRepository
	athleteRepo *repository.AthleteRepository
}

// NewTeamService creates a new team service
func NewTeamService(db *store.Database) *TeamService {
	return &TeamService{
		teamRepo:    repository.NewTeamRepository(db),
		athleteRepo: repository.NewAthleteRepository(db),
	}
}

// TeamListParams carries the team list filters plus pagination. Filters
// combine with AND; zero values are ignored.
type TeamListParams struct {
	Sport        string
	League       string
	Search       string
	Abbreviation string
	IsActive     *bool
	Page         int
	PageSize     int
}

// ListTeams returns one page of teams plus the total match count.
func (s *TeamService) ListTeams(ctx context.Context, params TeamListParams) ([]*store.Team, int, error) {
	filter := repository.TeamFilter{
		Sport:        params.Sport,
		League:       params.League,
		Search:       params.Search,
		Abbreviation: params.Abbreviation,
		IsActive:     params.IsActive,
	}

	count, err := s.teamRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting teams: %w", err)
	}

	limit, offset := normalizePage(params.Page, params.PageSize)
	teams, err := s.teamRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing teams: %w", err)
	}

	return teams, count, nil
}

// GetTeam retrieves a team by internal id.
func (s *TeamService) GetTeam(ctx context.Context, id int) (*store.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}
	return team, nil
}

// GetTeamByESPNID retrieves a team by its ESPN id.
func (s *TeamService) GetTeamByESPNID(ctx context.Context, espnID string) (*store.Team, error) {
	team, err := s.teamRepo.GetByESPNID(ctx, espnID)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}
	return team, nil
}

// ListTeamAthletes returns the roster of a team, ordered by name. The
// team is looked up first so an unknown id reports not-found rather
// than an empty roster.
func (s *TeamService) ListTeamAthletes(ctx context.Context, teamID int) ([]*store.Athlete, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}

	athletes, err := s.athleteRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing athletes: %w", err)
	}
	return athletes, nil
}
