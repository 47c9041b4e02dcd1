package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/geosurvey/internal/adapters/postgres"
	"github.com/samirrijal/geosurvey/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load("geosurvey-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	m, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	switch os.Args[1] {
	case "up":
		results, err := m.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		for _, r := range results {
			fmt.Printf("OK  %s (%s)\n", r.Source.Path, r.Duration)
		}
		log.Printf("%d migrations applied", len(results))
	case "down":
		r, err := m.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Printf("OK  rolled back %s\n", r.Source.Path)
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, s := range statuses {
			fmt.Printf("%-8s %s\n", s.State, s.Source.Path)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
