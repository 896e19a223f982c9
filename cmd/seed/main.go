// Command seed populates the Warbler database with demo data.
package main

import (
	"context"
	"log"

	"warbler/internal/bootstrap"
	"warbler/internal/config"
	"warbler/internal/seed"

	"github.com/spf13/pflag"
)

func main() {
	numUsers := pflag.IntP("users", "u", 50, "Number of users to create")
	numMessages := pflag.IntP("messages", "m", 200, "Number of messages to create")
	shouldClean := pflag.Bool("clean", true, "Clean database before seeding")
	fixture := pflag.StringP("fixture", "f", "", "YAML fixture to load instead of generated data")
	dryRun := pflag.Bool("dry-run", false, "Build entities without writing to the database")
	randSeed := pflag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	pflag.Parse()

	log.Println("🌱 Warbler Seeder")
	log.Println("=================")

	if *fixture != "" {
		log.Printf("Loading fixture: %s (ignoring --users/--messages)\n", *fixture)
	} else {
		log.Printf("Target: %d users, %d messages, clean=%v\n", *numUsers, *numMessages, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	ctx := context.Background()
	defer rt.Close(ctx)

	s, err := seed.NewSeeder(rt.DB, seed.Options{
		DryRun:     *dryRun,
		BcryptCost: cfg.BcryptCost,
		RandSeed:   *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeder init failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if *fixture != "" {
		if _, err := s.LoadFixture(ctx, *fixture); err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
	} else {
		users, err := s.SeedSocialMesh(ctx, *numUsers)
		if err != nil {
			log.Fatalf("❌ User seeding failed: %v", err)
		}
		if _, err := s.SeedEngagement(ctx, users, *numMessages); err != nil {
			log.Fatalf("❌ Engagement seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Printf("📧 Generated users have the password: %s", seed.DefaultPassword)
}
