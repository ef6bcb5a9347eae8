package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
)

// Cache TTLs (in seconds). Only catalog data is cached; booked slots are
// always read from the store.
const (
	hospitalByIDTTL  = 600
	hospitalsListTTL = 300
	doctorByIDTTL    = 300
	doctorsListTTL   = 300
)

// Cache key generators
func hospitalCacheKey(id string) string {
	return fmt.Sprintf("catalog:hospital:%s", id)
}

func hospitalsListCacheKey() string {
	return "catalog:hospitals:list"
}

func doctorCacheKey(id string) string {
	return fmt.Sprintf("catalog:doctor:%s", id)
}

func doctorsByHospitalCacheKey(hospitalID string) string {
	return fmt.Sprintf("catalog:doctors:hospital:%s", hospitalID)
}

// CatalogCachePattern matches every catalog key
const CatalogCachePattern = "catalog:*"

// readThrough returns the cached value for key or loads, caches and returns it.
func readThrough[T any](ctx context.Context, cache providers.CacheProvider, key string, ttl int, load func() (T, error)) (T, error) {
	if cached, err := cache.Get(ctx, key); err == nil {
		var value T
		if err := json.Unmarshal(cached, &value); err == nil {
			return value, nil
		}
		log.Warn().Str("key", key).Msg("failed to decode cached catalog entry")
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := cache.Set(ctx, key, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache catalog entry")
		}
	}
	return value, nil
}

// CachedHospitalAdapter wraps a HospitalRepository with caching
type CachedHospitalAdapter struct {
	adapter repositories.HospitalRepository
	cache   providers.CacheProvider
}

// NewCachedHospitalAdapter creates a new cached hospital adapter
func NewCachedHospitalAdapter(adapter repositories.HospitalRepository, cache providers.CacheProvider) repositories.HospitalRepository {
	return &CachedHospitalAdapter{adapter: adapter, cache: cache}
}

// GetByID retrieves a hospital by ID with caching
func (a *CachedHospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	return readThrough(ctx, a.cache, hospitalCacheKey(id), hospitalByIDTTL, func() (*entities.Hospital, error) {
		return a.adapter.GetByID(ctx, id)
	})
}

// List retrieves all hospitals with caching
func (a *CachedHospitalAdapter) List(ctx context.Context) ([]*entities.Hospital, error) {
	return readThrough(ctx, a.cache, hospitalsListCacheKey(), hospitalsListTTL, func() ([]*entities.Hospital, error) {
		return a.adapter.List(ctx)
	})
}

// GetByIDs is not cached; callers batch through a dataloader already.
func (a *CachedHospitalAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Hospital, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// CachedDoctorAdapter wraps a DoctorRepository with caching
type CachedDoctorAdapter struct {
	adapter repositories.DoctorRepository
	cache   providers.CacheProvider
}

// NewCachedDoctorAdapter creates a new cached doctor adapter
func NewCachedDoctorAdapter(adapter repositories.DoctorRepository, cache providers.CacheProvider) repositories.DoctorRepository {
	return &CachedDoctorAdapter{adapter: adapter, cache: cache}
}

// GetByID retrieves a doctor by ID with caching
func (a *CachedDoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	return readThrough(ctx, a.cache, doctorCacheKey(id), doctorByIDTTL, func() (*entities.Doctor, error) {
		return a.adapter.GetByID(ctx, id)
	})
}

// ListByHospital retrieves a hospital's doctors with caching
func (a *CachedDoctorAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	return readThrough(ctx, a.cache, doctorsByHospitalCacheKey(hospitalID), doctorsListTTL, func() ([]*entities.Doctor, error) {
		return a.adapter.ListByHospital(ctx, hospitalID)
	})
}

// GetByIDs is not cached
func (a *CachedDoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// InvalidateCatalog drops every cached catalog entry
func InvalidateCatalog(ctx context.Context, cache providers.CacheProvider) error {
	return cache.DeletePattern(ctx, CatalogCachePattern)
}
