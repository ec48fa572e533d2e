package ports

import (
	"context"
	"math"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
)

// PageRequest selects one page of a sorted scan. Page is 0-based.
// Results are ordered by name (case-insensitive) ascending, then by ID.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of wrapping, so a huge page reads past the end.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// DriverRepository is the single source of truth for driver records.
//
// Implementations must enforce uniqueness of email, tax ID and license number
// themselves and report a violation as *domain.DuplicateError, so that a race
// between two writers that both passed the service's pre-checks still cannot
// store a duplicate.
type DriverRepository interface {
	Create(ctx context.Context, d *domain.Driver) error
	// Update replaces every stored attribute of d.ID. Returns domain.ErrDriverNotFound if absent.
	Update(ctx context.Context, d *domain.Driver) error
	// Delete removes the record. Returns domain.ErrDriverNotFound if absent.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Driver, error)
	ExistsByField(ctx context.Context, field domain.UniqueField, value string) (bool, error)
	// List returns the requested page of drivers matching pred and the total match count.
	List(ctx context.Context, pred filter.Predicate, page PageRequest) ([]*domain.Driver, int64, error)
}
