package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/pressbox/internal/store"
	"github.com/fortuna/pressbox/internal/store/repository"
)

// EventService handles event queries
type EventService struct {
	eventRepo *repository.EventRepository
	venueRepo *repository.VenueRepository
}

// NewEventService creates a new event service
func NewEventService(db *store.Database) *EventService {
	return &EventService{
		eventRepo: repository.NewEventRepository(db),
		venueRepo: repository.NewVenueRepository(db),
	}
}

// EventListParams carries the event list filters plus pagination.
// Filters combine with AND; zero values are ignored.
type EventListParams struct {
	Sport      string
	League     string
	Status     string
	Team       string
	Date       time.Time
	DateFrom   time.Time
	DateTo     time.Time
	SeasonYear int
	SeasonType int
	Page       int
	PageSize   int
}

// EventDetail is an event with its competitors and venue attached.
type EventDetail struct {
	*store.Event
	Competitors []*store.Competitor `json:"competitors"`
	Venue       *store.Venue        `json:"venue,omitempty"`
}

// ListEvents returns one page of events plus the total match count.
func (s *EventService) ListEvents(ctx context.Context, params EventListParams) ([]*store.Event, int, error) {
	filter := repository.EventFilter{
		Sport:      params.Sport,
		League:     params.League,
		Status:     params.Status,
		Team:       params.Team,
		SeasonYear: params.SeasonYear,
		SeasonType: params.SeasonType,
	}
	if !params.Date.IsZero() {
		filter.Date = &params.Date
	}
	if !params.DateFrom.IsZero() {
		filter.DateFrom = &params.DateFrom
	}
	if !params.DateTo.IsZero() {
		filter.DateTo = &params.DateTo
	}

	count, err := s.eventRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}

	limit, offset := normalizePage(params.Page, params.PageSize)
	events, err := s.eventRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing events: %w", err)
	}

	return events, count, nil
}

// GetEvent retrieves an event by internal id with competitors and venue.
func (s *EventService) GetEvent(ctx context.Context, id int) (*EventDetail, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching event: %w", err)
	}
	return s.buildDetail(ctx, event)
}

// GetEventByESPNID retrieves an event by its ESPN id with competitors
// and venue.
func (s *EventService) GetEventByESPNID(ctx context.Context, espnID string) (*EventDetail, error) {
	event, err := s.eventRepo.GetByESPNID(ctx, espnID)
	if err != nil {
		return nil, fmt.Errorf("fetching event: %w", err)
	}
	return s.buildDetail(ctx, event)
}

func (s *EventService) buildDetail(ctx context.Context, event *store.Event) (*EventDetail, error) {
	competitors, err := s.eventRepo.ListCompetitors(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching competitors: %w", err)
	}

	detail := &EventDetail{Event: event, Competitors: competitors}
	if event.VenueID.Valid {
		venue, err := s.venueRepo.GetByID(ctx, int(event.VenueID.Int32))
		switch {
		case err == nil:
			detail.Venue = venue
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("fetching venue: %w", err)
		}
	}

	return detail, nil
}
