// Package memory holds an in-process DriverRepository used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

// DriverRepository keeps drivers in maps guarded by a single RWMutex. Unique
// values are indexed so that Create and Update enforce uniqueness atomically.
type DriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
	unique  map[domain.UniqueField]map[string]string // field -> value -> driver id
}

func NewDriverRepository() *DriverRepository {
	r := &DriverRepository{
		drivers: make(map[string]*domain.Driver),
		unique:  make(map[domain.UniqueField]map[string]string, len(domain.UniqueFields)),
	}
	for _, f := range domain.UniqueFields {
		r.unique[f] = make(map[string]string)
	}
	return r
}

func (r *DriverRepository) Create(_ context.Context, d *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[d.ID]; exists {
		return domain.NewDuplicateError("id")
	}
	if err := r.checkUnique(d); err != nil {
		return err
	}
	r.put(d.Clone())
	return nil
}

func (r *DriverRepository) Update(_ context.Context, d *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.drivers[d.ID]
	if !ok {
		return domain.ErrDriverNotFound
	}
	if err := r.checkUnique(d); err != nil {
		return err
	}
	r.unindex(old)
	r.put(d.Clone())
	return nil
}

func (r *DriverRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.drivers[id]
	if !ok {
		return domain.ErrDriverNotFound
	}
	r.unindex(old)
	delete(r.drivers, id)
	return nil
}

func (r *DriverRepository) FindByID(_ context.Context, id string) (*domain.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drivers[id]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}
	return d.Clone(), nil
}

func (r *DriverRepository) ExistsByField(_ context.Context, field domain.UniqueField, value string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.unique[field][value]
	return ok, nil
}

// List scans every driver, so it suits small directories only.
func (r *DriverRepository) List(_ context.Context, pred filter.Predicate, page ports.PageRequest) ([]*domain.Driver, int64, error) {
	if pred == nil {
		pred = filter.All{}
	}

	r.mu.RLock()
	matched := make([]*domain.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		if pred.Match(d) {
			matched = append(matched, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if a != b {
			return a < b
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := page.Offset()
	if start < 0 || start >= len(matched) || page.Size <= 0 {
		return []*domain.Driver{}, total, nil
	}
	end := start + page.Size
	if end > len(matched) || end < start {
		end = len(matched)
	}

	out := make([]*domain.Driver, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, d.Clone())
	}
	return out, total, nil
}

// checkUnique reports the first unique field of d already held by another driver.
func (r *DriverRepository) checkUnique(d *domain.Driver) error {
	for _, f := range domain.UniqueFields {
		if owner, ok := r.unique[f][d.UniqueValue(f)]; ok && owner != d.ID {
			return domain.NewDuplicateError(f)
		}
	}
	return nil
}

func (r *DriverRepository) put(d *domain.Driver) {
	r.drivers[d.ID] = d
	for _, f := range domain.UniqueFields {
		r.unique[f][d.UniqueValue(f)] = d.ID
	}
}

func (r *DriverRepository) unindex(d *domain.Driver) {
	for _, f := range domain.UniqueFields {
		delete(r.unique[f], d.UniqueValue(f))
	}
}
