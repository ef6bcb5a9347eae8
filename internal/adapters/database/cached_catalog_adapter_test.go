package database

import (
	"context"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
		}
	}
	return nil
}

type countingHospitals struct {
	calls     int
	hospitals map[string]*entities.Hospital
}

func (r *countingHospitals) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	r.calls++
	h, ok := r.hospitals[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("hospital not found")
	}
	return h, nil
}

func (r *countingHospitals) List(ctx context.Context) ([]*entities.Hospital, error) {
	r.calls++
	out := make([]*entities.Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		out = append(out, h)
	}
	return out, nil
}

func (r *countingHospitals) GetByIDs(ctx context.Context, ids []string) ([]*entities.Hospital, error) {
	r.calls++
	return nil, nil
}

type countingDoctors struct {
	calls   int
	doctors []*entities.Doctor
}

func (r *countingDoctors) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	r.calls++
	for _, d := range r.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("doctor not found")
}

func (r *countingDoctors) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	r.calls++
	out := make([]*entities.Doctor, 0)
	for _, d := range r.doctors {
		if d.HospitalID == hospitalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *countingDoctors) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	r.calls++
	return nil, nil
}

func TestCachedHospitalAdapter_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := &countingHospitals{hospitals: map[string]*entities.Hospital{
		"1": {ID: "1", Name: "Korle Bu Teaching Hospital"},
	}}
	cache := newFakeCache()
	adapter := NewCachedHospitalAdapter(repo, cache)

	first, err := adapter.GetByID(ctx, "1")
	require.NoError(t, err)
	second, err := adapter.GetByID(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	_, err = adapter.GetByID(ctx, "9")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	_, err = adapter.GetByID(ctx, "9")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, 3, repo.calls, "misses are not cached")
}

func TestCachedDoctorAdapter_PreservesPattern(t *testing.T) {
	ctx := context.Background()
	pattern, err := entities.ParseWeeklyPattern(map[string][]string{"Monday": {"9:00 AM", "10:00 AM"}})
	require.NoError(t, err)

	repo := &countingDoctors{doctors: []*entities.Doctor{
		{ID: "101", HospitalID: "1", Name: "Ama Mensah", Availability: pattern},
		{ID: "401", HospitalID: "4", Name: "John Appiah"},
	}}
	adapter := NewCachedDoctorAdapter(repo, newFakeCache())

	for i := 0; i < 2; i++ {
		doctors, err := adapter.ListByHospital(ctx, "1")
		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, pattern, doctors[0].Availability)
	}
	assert.Equal(t, 1, repo.calls)

	// a missing pattern must survive the cache round trip as nil
	for i := 0; i < 2; i++ {
		doctor, err := adapter.GetByID(ctx, "401")
		require.NoError(t, err)
		assert.False(t, doctor.HasPattern())
	}
	assert.Equal(t, 2, repo.calls)
}

func TestInvalidateCatalog(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	require.NoError(t, cache.Set(ctx, hospitalCacheKey("1"), []byte(`{}`), 60))
	require.NoError(t, cache.Set(ctx, doctorsByHospitalCacheKey("1"), []byte(`[]`), 60))
	require.NoError(t, cache.Set(ctx, "http:cache:abc", []byte(`[]`), 60))

	require.NoError(t, InvalidateCatalog(ctx, cache))

	_, err := cache.Get(ctx, hospitalCacheKey("1"))
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = cache.Get(ctx, doctorsByHospitalCacheKey("1"))
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = cache.Get(ctx, "http:cache:abc")
	assert.NoError(t, err)
}
