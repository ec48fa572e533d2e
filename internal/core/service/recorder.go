package service

import (
	"context"
	"time"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// UniqueKeyGuard reserves unique values for the duration of a write, narrowing
// the window between an existence check and the insert. It is advisory: the
// repository's own constraint remains authoritative.
type UniqueKeyGuard interface {
	// Claim reserves value for owner. It returns false when another owner holds it.
	Claim(ctx context.Context, field domain.UniqueField, value, owner string) (bool, error)
	Release(ctx context.Context, field domain.UniqueField, value, owner string) error
}

// DirectoryRecorder receives driver directory events for metrics.
type DirectoryRecorder interface {
	DriverCreated()
	DriverUpdated()
	DriverDeleted()
	DuplicateRejected(field domain.UniqueField)
	ListServed(elapsed time.Duration)
}

// LoginRecorder receives login outcomes for metrics.
type LoginRecorder interface {
	LoginAttempt(success bool)
}

type nopRecorder struct{}

func (nopRecorder) DriverCreated()                       {}
func (nopRecorder) DriverUpdated()                       {}
func (nopRecorder) DriverDeleted()                       {}
func (nopRecorder) DuplicateRejected(domain.UniqueField) {}
func (nopRecorder) ListServed(time.Duration)             {}
func (nopRecorder) LoginAttempt(bool)                    {}
