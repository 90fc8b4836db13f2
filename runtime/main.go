package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/staszek-kampania/backend/middleware"
	"github.com/staszek-kampania/backend/services"
)

// @title Staszek Campaign Backend
// @description Counter/forum proxy and static site server for the campaign website.
// @BasePath /
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.RedisService{},
		&services.JWTService{},
		&services.AuthService{},
		&services.RateLimitService{},
		&services.LicznikService{},
		&services.ModerationService{},
		&services.ReputationService{},
		&services.StaticService{},

		&middleware.AuthMiddleware{},
		&middleware.RateLimitMiddleware{},
		&middleware.HeadersMiddleware{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	if err = ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
		return
	}
}
