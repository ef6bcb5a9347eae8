package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/adapters/cache"
	"github.com/zatekoja/streamlinecare/internal/adapters/database"
	"github.com/zatekoja/streamlinecare/internal/adapters/events"
	"github.com/zatekoja/streamlinecare/internal/adapters/memory"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/redis"
	"github.com/zatekoja/streamlinecare/pkg/config"
	"github.com/zatekoja/streamlinecare/seed"
)

// stores bundles the persistence ports the services run on
type stores struct {
	hospitals    repositories.HospitalRepository
	doctors      repositories.DoctorRepository
	appointments repositories.AppointmentRepository

	// cache is nil when Redis is disabled or unreachable
	cache providers.CacheProvider
	bus   providers.EventBus

	closers []func() error
}

func (s *stores) Close() {
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn().Err(err).Msg("error closing client")
		}
	}
}

// connectRedis returns nil when Redis is disabled. An unreachable Redis is
// logged and tolerated; the service runs without caching.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and with the in-process event bus")
		return nil
	}
	log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
	return client
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}

	redisClient := connectRedis(ctx, cfg)
	if redisClient != nil {
		s.closers = append(s.closers, redisClient.Close)
		s.cache = cache.NewRedisAdapter(redisClient)
		s.bus = events.NewRedisEventBus(redisClient)
	} else {
		s.bus = events.NewLocalEventBus()
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		catalog := memory.NewCatalog()
		fixture, err := seed.Load()
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := seed.Apply(ctx, catalog, fixture); err != nil {
			s.Close()
			return nil, err
		}
		s.hospitals = catalog.Hospitals()
		s.doctors = catalog.Doctors()
		s.appointments = memory.NewAppointmentStore()
		log.Info().
			Int("hospitals", len(fixture.Hospitals)).
			Int("doctors", len(fixture.Doctors)).
			Msg("in-memory store loaded from seed catalog")

	case config.StorageDriverPostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		s.closers = append(s.closers, pgClient.Close)
		log.Info().Str("host", cfg.Database.Host).Msg("PostgreSQL client initialized")

		var hospitals repositories.HospitalRepository = database.NewHospitalAdapter(pgClient)
		var doctors repositories.DoctorRepository = database.NewDoctorAdapter(pgClient)
		if s.cache != nil {
			hospitals = database.NewCachedHospitalAdapter(hospitals, s.cache)
			doctors = database.NewCachedDoctorAdapter(doctors, s.cache)
		}
		s.hospitals = hospitals
		s.doctors = doctors
		s.appointments = database.NewAppointmentAdapter(pgClient)

	default:
		s.Close()
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	return s, nil
}
