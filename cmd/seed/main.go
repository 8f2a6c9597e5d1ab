package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/database"
	"github.com/dlms/dlms-backend/internal/logger"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/dlms/dlms-backend/internal/service"
)

func main() {
	path := flag.String("file", "seeds/questions.yaml", "YAML file with questions and licenses")
	flag.Parse()

	cfg := config.Load()
	log := logger.Component(logger.Setup(cfg.LogLevel, cfg.LogFormat), "seed")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	f, err := loadSeedFile(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), service.NewRedisExamCache(rdb), log)
	userRepo := repository.NewUserRepository(pool)
	licenseRepo := repository.NewLicenseRepository(pool)

	// ─── Questions ─────────────────────────────────────────────────────
	created := 0
	for i, q := range f.Questions {
		if _, err := questionService.Create(ctx, q.request()); err != nil {
			log.Error().Err(err).Int("index", i).Str("question", q.Question).Msg("Skipping question")
			continue
		}
		created++
	}
	log.Info().Int("created", created).Int("total", len(f.Questions)).Msg("Questions seeded")

	// ─── Licenses ──────────────────────────────────────────────────────
	issued := 0
	for _, l := range f.Licenses {
		holder, err := userRepo.GetByEmail(ctx, l.Email)
		if err != nil {
			log.Error().Err(err).Str("email", l.Email).Msg("Skipping license: holder not found")
			continue
		}

		license, err := l.license(holder.ID, cfg.MaxLicensePoints)
		if err != nil {
			log.Error().Err(err).Msg("Skipping license")
			continue
		}

		if err := licenseRepo.Issue(ctx, license); err != nil {
			if errors.Is(err, repository.ErrDuplicateLicense) {
				log.Warn().Str("license_number", l.LicenseNumber).Msg("License already issued")
				continue
			}
			log.Fatal().Err(err).Msg("Failed to issue license")
		}
		issued++
	}
	log.Info().Int("issued", issued).Int("total", len(f.Licenses)).Msg("Licenses seeded")
}
