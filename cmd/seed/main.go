// Command main fills the userdata database with demo users and friendships.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"userdata/internal/config"
	"userdata/internal/database"
	"userdata/internal/kafka"
	"userdata/internal/middleware"
	"userdata/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	friendRatio := flag.Float64("friends", seed.DefaultOptions.FriendRatio, "Probability that two users are friends")
	inviteRatio := flag.Float64("invites", seed.DefaultOptions.InviteRatio, "Probability of a pending invitation between two users")
	randSeed := flag.Int64("seed", 0, "Random seed (0 for random)")
	publish := flag.Bool("publish", false, "Announce seeded users on the users Kafka topic")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := middleware.NewLogger(os.Stdout, cfg.Env, slog.LevelInfo)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	s := seed.NewSeeder(db, seed.Options{
		Seed:        *randSeed,
		FriendRatio: *friendRatio,
		InviteRatio: *inviteRatio,
	}, logger)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	if _, _, err := s.SeedMesh(users); err != nil {
		log.Fatalf("Friendship seeding failed: %v", err)
	}

	if *publish {
		if !cfg.KafkaEnabled() {
			log.Fatal("KAFKA_BROKERS must be set to publish users")
		}
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = p.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, u := range users {
			if err := p.PublishUser(ctx, u.Username); err != nil {
				log.Fatalf("Publishing %s failed: %v", u.Username, err)
			}
		}
		logger.Info("Published users", slog.Int("count", len(users)))
	}

	logger.Info("Seeding complete")
}
