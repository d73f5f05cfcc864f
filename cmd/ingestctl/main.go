package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fortuna/pressbox/internal/config"
	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/store"
	"github.com/fortuna/pressbox/internal/store/repository"
)

const (
	appName    = "ingestctl"
	appVersion = "1.0.0"
)

const usage = `Usage: ingestctl <command> [flags]

Commands:
  teams       Ingest the team catalog for a league
  scoreboard  Ingest a day's scoreboard
  roster      Ingest a team's roster
  event       Ingest a single event summary

Flags:
  -sport   Sport slug, e.g. basketball (required)
  -league  League slug, e.g. nba (required)
  -date    Scoreboard date, YYYY-MM-DD or YYYYMMDD (scoreboard only)
  -team    ESPN team id (roster only)
  -event   ESPN event id (event only)
`

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	switch command {
	case "teams", "scoreboard", "roster", "event":
	case "help", "-h", "--help":
		fmt.Fprint(os.Stderr, usage)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		sport   = fs.String("sport", "", "Sport slug (e.g. basketball)")
		league  = fs.String("league", "", "League slug (e.g. nba)")
		date    = fs.String("date", "", "Scoreboard date (YYYY-MM-DD or YYYYMMDD)")
		team    = fs.String("team", "", "ESPN team id")
		eventID = fs.String("event", "", "ESPN event id")
	)
	fs.Parse(os.Args[2:])

	if *sport == "" || *league == "" {
		log.Fatalf("-sport and -league are required")
	}

	cfg := config.Load()

	db, err := store.NewDatabase(cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	if err := db.SeedData(); err != nil {
		log.Printf("⚠️  Seed data warning: %v (continuing anyway)", err)
	}

	client := espn.NewClient(espn.Config{
		SiteBaseURL: cfg.ESPN.SiteBaseURL,
		CoreBaseURL: cfg.ESPN.CoreBaseURL,
		Timeout:     cfg.ESPN.Timeout,
		MaxRetries:  cfg.ESPN.MaxRetries,
		Backoff:     cfg.ESPN.Backoff,
	})

	// One-shot runs write to the database only; no publisher is attached.
	ingester := ingest.New(ingest.Config{
		Client:    client,
		Reference: repository.NewReferenceRepository(db),
		Teams:     repository.NewTeamRepository(db),
		Venues:    repository.NewVenueRepository(db),
		Events:    repository.NewEventRepository(db),
		Athletes:  repository.NewAthleteRepository(db),
	})

	ctx := context.Background()

	var result *ingest.Result
	switch command {
	case "teams":
		result, err = ingester.IngestTeams(ctx, *sport, *league)
	case "scoreboard":
		var day time.Time
		if *date != "" {
			if day, err = parseDate(*date); err != nil {
				log.Fatalf("invalid date: %v", err)
			}
		}
		result, err = ingester.IngestScoreboard(ctx, *sport, *league, day)
	case "roster":
		if *team == "" {
			log.Fatalf("-team is required for roster runs")
		}
		result, err = ingester.IngestRoster(ctx, *sport, *league, *team)
	case "event":
		if *eventID == "" {
			log.Fatalf("-event is required for event runs")
		}
		result, err = ingester.IngestEvent(ctx, *sport, *league, *eventID)
	}

	if err != nil {
		log.Fatalf("%s run failed: %v", command, err)
	}

	log.Printf("✓ %s run completed: %d created, %d updated, %d error(s)",
		command, result.Created, result.Updated, len(result.Errors))
	for _, itemErr := range result.Errors {
		log.Printf("⚠️  %s", itemErr)
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if day, err := time.Parse(layout, raw); err == nil {
			return day, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD or YYYYMMDD", raw)
}
