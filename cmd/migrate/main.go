// Command migrate runs schema operations for Warbler.
package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"warbler/internal/config"
	"warbler/internal/database"

	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|status|down> [version]")
}

func run() error {
	pflag.Parse()
	if pflag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB(db)

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(pflag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "status":
		statuses, err := database.Status(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		pending := 0
		for _, st := range statuses {
			state := "applied"
			if !st.Applied {
				state = "pending"
				pending++
			}
			log.Printf("%s: %s", state, st.Migration.String())
		}
		log.Printf("applied=%d pending=%d", len(statuses)-pending, pending)
	case "down":
		if pflag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(pflag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", pflag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	default:
		return usage()
	}

	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
