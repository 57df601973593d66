// Command seed fills the database with fake users, posts and social activity.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/middleware"
	"socialhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	maxDays := flag.Int("days", 90, "Spread content over this many past days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 uses the clock)")
	fast := flag.Bool("fast", false, "Hash passwords at minimum bcrypt cost")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}
	middleware.ConfigureLogger(cfg.Env, os.Stdout)

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	s, err := seed.NewSeeder(db, seed.Options{
		NumUsers:   *numUsers,
		NumPosts:   *numPosts,
		Clean:      *shouldClean,
		SkipBcrypt: *fast,
		MaxDays:    *maxDays,
		BatchSize:  100,
		RandSeed:   *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeder setup failed: %v", err)
	}
	if _, err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s\n", seed.DefaultPassword)
}
