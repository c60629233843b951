package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hectoclash/internal/config"
	"hectoclash/internal/logger"
	"hectoclash/internal/repository"
	"hectoclash/internal/service"
)

type seedUser struct {
	id     string
	name   string
	rating int
}

// Demo accounts for local play. Tokens are printed so two browser tabs can
// join the lobby as different users.
var users = []seedUser{
	{id: "demo-alice", name: "alice", rating: 40},
	{id: "demo-bob", name: "bob", rating: 25},
	{id: "demo-carol", name: "carol", rating: 10},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	userRepo := repository.NewUserRepo(client.Database(cfg.MongoDB))
	auth := service.NewAuthService(cfg.JWTSecret)

	for _, u := range users {
		if err := userRepo.SetUsername(ctx, u.id, u.name); err != nil {
			log.Fatal().Err(err).Str("player", u.id).Msg("failed to seed user")
		}
		current, err := userRepo.GetByID(ctx, u.id)
		if err != nil {
			log.Fatal().Err(err).Str("player", u.id).Msg("failed to read user")
		}
		if current != nil && current.Rating != u.rating {
			if err := userRepo.AdjustRating(ctx, u.id, u.rating-current.Rating); err != nil {
				log.Fatal().Err(err).Str("player", u.id).Msg("failed to set rating")
			}
		}

		token, err := auth.IssueToken(u.id, u.name, 24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to issue token")
		}
		fmt.Printf("%-6s %s\n", u.name, token)
	}

	log.Info().Int("users", len(users)).Msg("seeded demo users")
}
