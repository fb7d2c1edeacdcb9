package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LayoverRepository struct {
	mu       sync.Mutex
	layovers map[primitive.ObjectID]*models.Layover
}

func NewLayoverRepository() *LayoverRepository {
	return &LayoverRepository{layovers: make(map[primitive.ObjectID]*models.Layover)}
}

func (r *LayoverRepository) Create(_ context.Context, layover *models.Layover) (*models.Layover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if layover.ID.IsZero() {
		layover.ID = primitive.NewObjectID()
	}
	layover.CreatedAt = time.Now()
	layover.UpdatedAt = layover.CreatedAt

	cp := *layover
	r.layovers[layover.ID] = &cp
	return layover, nil
}

func (r *LayoverRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Layover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.layovers[id]
	if !ok {
		return nil, apperrors.NotFound("layover %s not found", id.Hex())
	}
	cp := *l
	return &cp, nil
}

func (r *LayoverRepository) Update(_ context.Context, layover *models.Layover) (*models.Layover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layovers[layover.ID]; !ok {
		return nil, apperrors.NotFound("layover %s not found", layover.ID.Hex())
	}
	layover.UpdatedAt = time.Now()
	cp := *layover
	r.layovers[layover.ID] = &cp
	return layover, nil
}

func (r *LayoverRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layovers[id]; !ok {
		return apperrors.NotFound("layover %s not found", id.Hex())
	}
	delete(r.layovers, id)
	return nil
}

func (r *LayoverRepository) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Layover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Layover
	for _, l := range r.layovers {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *LayoverRepository) FindDiscoverable(_ context.Context, city string, start, end time.Time, exclude primitive.ObjectID) ([]models.Layover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Layover
	for _, l := range r.layovers {
		if l.City != city || !l.Discoverable || l.UserID == exclude {
			continue
		}
		if l.Overlaps(start, end) {
			out = append(out, *l)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *LayoverRepository) RollStatuses(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, l := range r.layovers {
		derived := l.StatusAt(now)
		if l.Status != derived {
			l.Status = derived
			l.UpdatedAt = now
			updated++
		}
	}
	return updated, nil
}

// sortByStart mirrors the Mongo sort: start_date ascending, _id as tiebreak.
func sortByStart(layovers []models.Layover) {
	sort.Slice(layovers, func(i, j int) bool {
		if layovers[i].StartDate.Equal(layovers[j].StartDate) {
			return layovers[i].ID.Hex() < layovers[j].ID.Hex()
		}
		return layovers[i].StartDate.Before(layovers[j].StartDate)
	})
}
