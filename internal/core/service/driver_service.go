package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// DriverService implements ports.DriverService on top of a DriverRepository.
type DriverService struct {
	repo     ports.DriverRepository
	guard    UniqueKeyGuard
	recorder DirectoryRecorder
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// DriverServiceOption customises a DriverService.
type DriverServiceOption func(*DriverService)

// WithUniqueKeyGuard enables unique-value claims around writes.
func WithUniqueKeyGuard(g UniqueKeyGuard) DriverServiceOption {
	return func(s *DriverService) { s.guard = g }
}

// WithDirectoryRecorder wires metrics.
func WithDirectoryRecorder(r DirectoryRecorder) DriverServiceOption {
	return func(s *DriverService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DriverServiceOption {
	return func(s *DriverService) { s.now = now }
}

func NewDriverService(repo ports.DriverRepository, logger zerolog.Logger, opts ...DriverServiceOption) *DriverService {
	s := &DriverService{
		repo:     repo,
		recorder: nopRecorder{},
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDriver registers a new, available driver. Unique fields are checked in
// the order email, tax ID, license number and only the first collision is reported.
func (s *DriverService) CreateDriver(ctx context.Context, in ports.DriverInput) (*ports.DriverDetail, error) {
	now := s.now().UTC()
	d := &domain.Driver{
		ID:        s.newID(),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(d, in)
	if err := validateDriver(d); err != nil {
		return nil, err
	}

	release, err := s.reserve(ctx, d, nil)
	defer release()
	if err != nil {
		return nil, s.rejected(err, "create driver")
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, s.rejected(err, "create driver")
		}
		s.logger.Error().Err(err).Msg("failed to create driver")
		return nil, fmt.Errorf("create driver: %w", err)
	}

	s.recorder.DriverCreated()
	s.logger.Info().Str("driver_id", d.ID).Str("actor", in.Actor).Msg("driver created")
	return toDetail(d), nil
}

// GetDriver returns the full representation of one driver.
func (s *DriverService) GetDriver(ctx context.Context, id string) (*ports.DriverDetail, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDetail(d), nil
}

// ListDrivers returns one page of drivers matching the optional filters.
func (s *DriverService) ListDrivers(ctx context.Context, in ports.ListDriversInput) (*ports.ListDriversResult, error) {
	start := time.Now()
	defer func() { s.recorder.ListServed(time.Since(start)) }()

	page := ports.PageRequest{Page: in.Page, Size: in.Size}
	if page.Page < 0 {
		page.Page = 0
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}

	pred := filter.Compile(filter.Criteria{
		Text:     in.Text,
		State:    in.State,
		City:     in.City,
		Vehicles: in.Vehicles,
	})

	drivers, total, err := s.repo.List(ctx, pred, page)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}

	items := make([]ports.DriverSummary, len(drivers))
	for i, d := range drivers {
		items[i] = toSummary(d)
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}

	return &ports.ListDriversResult{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: totalPages,
	}, nil
}

// UpdateDriver overwrites every mutable field. A unique field left unchanged is
// never checked, so a driver cannot collide with itself. Availability is kept.
func (s *DriverService) UpdateDriver(ctx context.Context, id string, in ports.DriverInput) (*ports.DriverDetail, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	applyInput(next, in)
	next.UpdatedAt = s.now().UTC()
	if err := validateDriver(next); err != nil {
		return nil, err
	}

	release, err := s.reserve(ctx, next, current)
	defer release()
	if err != nil {
		return nil, s.rejected(err, "update driver")
	}

	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, s.rejected(err, "update driver")
		}
		if errors.Is(err, domain.ErrDriverNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("driver_id", id).Msg("failed to update driver")
		return nil, fmt.Errorf("update driver: %w", err)
	}

	s.recorder.DriverUpdated()
	s.logger.Info().Str("driver_id", id).Str("actor", in.Actor).Msg("driver updated")
	return toDetail(next), nil
}

// DeleteDriver removes a driver.
func (s *DriverService) DeleteDriver(ctx context.Context, id, actor string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDriverNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("driver_id", id).Msg("failed to delete driver")
		return fmt.Errorf("delete driver: %w", err)
	}

	s.recorder.DriverDeleted()
	s.logger.Info().Str("driver_id", id).Str("actor", actor).Msg("driver deleted")
	return nil
}

func (s *DriverService) find(ctx context.Context, id string) (*domain.Driver, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrDriverNotFound
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDriverNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}
	return d, nil
}

// reserve claims and pre-checks every unique field of next that differs from
// current (all of them when current is nil), in field order. The returned
// release func is always safe to call.
func (s *DriverService) reserve(ctx context.Context, next, current *domain.Driver) (func(), error) {
	owner := s.newID()
	var claimed []domain.UniqueField

	release := func() {
		if s.guard == nil {
			return
		}
		// The caller's context may already be cancelled; releases must still go out.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		for _, f := range claimed {
			if err := s.guard.Release(rctx, f, next.UniqueValue(f), owner); err != nil {
				s.logger.Warn().Err(err).Str("field", string(f)).Msg("failed to release unique claim")
			}
		}
	}

	for _, f := range domain.UniqueFields {
		value := next.UniqueValue(f)
		if current != nil && current.UniqueValue(f) == value {
			continue
		}

		if s.guard != nil {
			ok, err := s.guard.Claim(ctx, f, value, owner)
			switch {
			case err != nil:
				s.logger.Warn().Err(err).Str("field", string(f)).Msg("unique claim failed, relying on store constraint")
			case !ok:
				return release, domain.NewDuplicateError(f)
			default:
				claimed = append(claimed, f)
			}
		}

		exists, err := s.repo.ExistsByField(ctx, f, value)
		if err != nil {
			return release, fmt.Errorf("check %s: %w", f, err)
		}
		if exists {
			return release, domain.NewDuplicateError(f)
		}
	}
	return release, nil
}

// rejected records duplicate rejections and wraps other failures with op.
func (s *DriverService) rejected(err error, op string) error {
	if f, ok := domain.DuplicateField(err); ok {
		s.recorder.DuplicateRejected(f)
		s.logger.Warn().Str("field", string(f)).Msg(op + ": duplicate rejected")
		return err
	}
	s.logger.Error().Err(err).Msg(op + " failed")
	return fmt.Errorf("%s: %w", op, err)
}

func applyInput(d *domain.Driver, in ports.DriverInput) {
	d.Name = strings.TrimSpace(in.Name)
	d.Email = domain.NormalizeEmail(in.Email)
	d.Phone = strings.TrimSpace(in.Phone)
	d.TaxID = domain.NormalizeTaxID(in.TaxID)
	d.LicenseNumber = domain.NormalizeLicenseNumber(in.LicenseNumber)
	d.City = strings.TrimSpace(in.City)
	d.State = domain.NormalizeState(in.State)
	d.VehicleTypes = domain.NormalizeVehicleTypes(in.VehicleTypes)
}

// validateDriver guards the invariants the repository relies on. The HTTP layer
// validates first; this catches callers that bypass it.
func validateDriver(d *domain.Driver) error {
	var problems []string
	if d.Name == "" {
		problems = append(problems, "name is required")
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		problems = append(problems, "email must be a valid email")
	}
	if d.Phone == "" {
		problems = append(problems, "phone is required")
	}
	if !domain.ValidTaxID(d.TaxID) {
		problems = append(problems, "taxId must be a valid CPF")
	}
	if d.LicenseNumber == "" {
		problems = append(problems, "licenseNumber is required")
	}
	if d.City == "" {
		problems = append(problems, "city is required")
	}
	if !validState(d.State) {
		problems = append(problems, "state must have exactly 2 letters")
	}
	if len(d.VehicleTypes) == 0 {
		problems = append(problems, "vehicleTypes must contain at least one of CAR, MOTORCYCLE, TRUCK")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidDriver, strings.Join(problems, "; "))
	}
	return nil
}

func validState(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func toDetail(d *domain.Driver) *ports.DriverDetail {
	return &ports.DriverDetail{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		TaxID:         d.TaxID,
		LicenseNumber: d.LicenseNumber,
		City:          d.City,
		State:         d.State,
		Available:     d.Available,
		VehicleTypes:  append([]domain.VehicleType(nil), d.VehicleTypes...),
	}
}

func toSummary(d *domain.Driver) ports.DriverSummary {
	return ports.DriverSummary{
		ID:           d.ID,
		Name:         d.Name,
		Phone:        d.Phone,
		City:         d.City,
		State:        d.State,
		Available:    d.Available,
		VehicleTypes: append([]domain.VehicleType(nil), d.VehicleTypes...),
	}
}
