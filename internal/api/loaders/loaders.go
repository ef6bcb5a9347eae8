package loaders

import (
	"context"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches catalog lookups made while rendering one request
type Loaders struct {
	HospitalLoader *dataloader.Loader[string, *entities.Hospital]
	DoctorLoader   *dataloader.Loader[string, *entities.Doctor]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(hospitalRepo repositories.HospitalRepository, doctorRepo repositories.DoctorRepository) *Loaders {
	return &Loaders{
		HospitalLoader: dataloader.NewBatchedLoader(batchByID(hospitalRepo.GetByIDs, func(h *entities.Hospital) string { return h.ID }, "hospital")),
		DoctorLoader:   dataloader.NewBatchedLoader(batchByID(doctorRepo.GetByIDs, func(d *entities.Doctor) string { return d.ID }, "doctor")),
	}
}

// batchByID adapts a GetByIDs lookup to a dataloader batch function. Results
// are returned in key order; absent keys resolve to a not-found error.
func batchByID[V any](
	fetch func(ctx context.Context, ids []string) ([]V, error),
	idOf func(V) string,
	label string,
) dataloader.BatchFunc[string, V] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[V] {
		results := make([]*dataloader.Result[V], len(keys))
		items, err := fetch(ctx, keys)

		byID := make(map[string]V, len(items))
		if err == nil {
			for _, item := range items {
				byID[idOf(item)] = item
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[V]{Error: err}
			} else if item, ok := byID[key]; ok {
				results[i] = &dataloader.Result[V]{Data: item}
			} else {
				results[i] = &dataloader.Result[V]{Error: apperrors.NewNotFoundError(label + " " + key + " not found")}
			}
		}
		return results
	}
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches fresh loaders to every request so cached results
// never outlive the request that loaded them.
func Middleware(hospitalRepo repositories.HospitalRepository, doctorRepo repositories.DoctorRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(hospitalRepo, doctorRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Details resolves hospital and doctor names for appts. Names that cannot be
// loaded are left empty rather than failing the listing.
func (l *Loaders) Details(ctx context.Context, appts []*entities.Appointment) []*entities.AppointmentDetails {
	hospitalThunks := make([]dataloader.Thunk[*entities.Hospital], len(appts))
	doctorThunks := make([]dataloader.Thunk[*entities.Doctor], len(appts))
	for i, appt := range appts {
		hospitalThunks[i] = l.HospitalLoader.Load(ctx, appt.HospitalID)
		doctorThunks[i] = l.DoctorLoader.Load(ctx, appt.DoctorID)
	}

	details := make([]*entities.AppointmentDetails, len(appts))
	for i, appt := range appts {
		d := &entities.AppointmentDetails{Appointment: appt}
		if hospital, err := hospitalThunks[i](); err == nil {
			d.HospitalName = hospital.Name
		}
		if doctor, err := doctorThunks[i](); err == nil {
			d.DoctorName = doctor.Name
		}
		details[i] = d
	}
	return details
}
