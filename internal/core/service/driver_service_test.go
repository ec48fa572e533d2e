package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/memory"
)

type stubDriverRepo struct {
	mu        sync.Mutex
	drivers   map[string]*domain.Driver
	existsErr error
	// skipExists makes ExistsByField always report false, simulating a lost race.
	skipExists bool
}

func newStubDriverRepo() *stubDriverRepo {
	return &stubDriverRepo{drivers: make(map[string]*domain.Driver)}
}

func (r *stubDriverRepo) conflict(d *domain.Driver) error {
	for _, f := range domain.UniqueFields {
		for _, other := range r.drivers {
			if other.ID != d.ID && other.UniqueValue(f) == d.UniqueValue(f) {
				return domain.NewDuplicateError(f)
			}
		}
	}
	return nil
}

func (r *stubDriverRepo) Create(_ context.Context, d *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(d); err != nil {
		return err
	}
	r.drivers[d.ID] = d.Clone()
	return nil
}

func (r *stubDriverRepo) Update(_ context.Context, d *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[d.ID]; !ok {
		return domain.ErrDriverNotFound
	}
	if err := r.conflict(d); err != nil {
		return err
	}
	r.drivers[d.ID] = d.Clone()
	return nil
}

func (r *stubDriverRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[id]; !ok {
		return domain.ErrDriverNotFound
	}
	delete(r.drivers, id)
	return nil
}

func (r *stubDriverRepo) FindByID(_ context.Context, id string) (*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}
	return d.Clone(), nil
}

func (r *stubDriverRepo) ExistsByField(_ context.Context, f domain.UniqueField, value string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	if r.skipExists {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drivers {
		if d.UniqueValue(f) == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubDriverRepo) List(_ context.Context, p filter.Predicate, page ports.PageRequest) ([]*domain.Driver, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Driver
	for _, d := range r.drivers {
		if p == nil || p.Match(d) {
			matched = append(matched, d.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type stubGuard struct {
	mu       sync.Mutex
	held     map[string]string
	err      error
	released int
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]string)}
}

func (g *stubGuard) Claim(_ context.Context, f domain.UniqueField, value, owner string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	key := string(f) + ":" + value
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = owner
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, f domain.UniqueField, value, owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := string(f) + ":" + value
	if g.held[key] == owner {
		delete(g.held, key)
		g.released++
	}
	return nil
}

type directoryCounter struct {
	mu                        sync.Mutex
	created, updated, deleted int
	duplicates                map[domain.UniqueField]int
	lists                     int
}

func newDirectoryCounter() *directoryCounter {
	return &directoryCounter{duplicates: make(map[domain.UniqueField]int)}
}

func (c *directoryCounter) DriverCreated() { c.mu.Lock(); c.created++; c.mu.Unlock() }
func (c *directoryCounter) DriverUpdated() { c.mu.Lock(); c.updated++; c.mu.Unlock() }
func (c *directoryCounter) DriverDeleted() { c.mu.Lock(); c.deleted++; c.mu.Unlock() }
func (c *directoryCounter) DuplicateRejected(f domain.UniqueField) {
	c.mu.Lock()
	c.duplicates[f]++
	c.mu.Unlock()
}
func (c *directoryCounter) ListServed(time.Duration) { c.mu.Lock(); c.lists++; c.mu.Unlock() }

func validInput() ports.DriverInput {
	return ports.DriverInput{
		Name:          "Ana Souza",
		Email:         "ana@example.com",
		Phone:         "11999990000",
		TaxID:         "529.982.247-25",
		LicenseNumber: "SP123456",
		City:          "São Paulo",
		State:         "sp",
		VehicleTypes:  []domain.VehicleType{domain.VehicleTruck, domain.VehicleCar, domain.VehicleCar},
		Actor:         "admin",
	}
}

func TestDriverService_Create_Success(t *testing.T) {
	repo := newStubDriverRepo()
	rec := newDirectoryCounter()
	svc := NewDriverService(repo, zerolog.Nop(), WithDirectoryRecorder(rec))

	in := validInput()
	in.Email = "  Ana@Example.COM "
	got, err := svc.CreateDriver(context.Background(), in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !got.Available {
		t.Fatalf("new drivers must be available")
	}
	if got.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", got.Email)
	}
	if got.TaxID != "52998224725" {
		t.Fatalf("tax id not normalized: %q", got.TaxID)
	}
	if got.State != "SP" {
		t.Fatalf("state not normalized: %q", got.State)
	}
	if len(got.VehicleTypes) != 2 || got.VehicleTypes[0] != domain.VehicleCar || got.VehicleTypes[1] != domain.VehicleTruck {
		t.Fatalf("unexpected vehicle types: %v", got.VehicleTypes)
	}
	if rec.created != 1 {
		t.Fatalf("expected created counter 1, got %d", rec.created)
	}

	stored, err := svc.GetDriver(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != "Ana Souza" {
		t.Fatalf("unexpected stored driver: %+v", stored)
	}
}

func TestDriverService_Create_Invalid(t *testing.T) {
	cases := map[string]func(*ports.DriverInput){
		"blank name":      func(in *ports.DriverInput) { in.Name = "  " },
		"bad email":       func(in *ports.DriverInput) { in.Email = "not-an-email" },
		"bad tax id":      func(in *ports.DriverInput) { in.TaxID = "12345678900" },
		"long state":      func(in *ports.DriverInput) { in.State = "SPX" },
		"numeric state":   func(in *ports.DriverInput) { in.State = "S1" },
		"no vehicles":     func(in *ports.DriverInput) { in.VehicleTypes = nil },
		"unknown vehicle": func(in *ports.DriverInput) { in.VehicleTypes = []domain.VehicleType{"BIKE"} },
		"blank license":   func(in *ports.DriverInput) { in.LicenseNumber = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newStubDriverRepo()
			svc := NewDriverService(repo, zerolog.Nop())
			in := validInput()
			mutate(&in)

			if _, err := svc.CreateDriver(context.Background(), in); !errors.Is(err, domain.ErrInvalidDriver) {
				t.Fatalf("expected ErrInvalidDriver, got %v", err)
			}
			if len(repo.drivers) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

func TestDriverService_Create_DuplicateFieldOrder(t *testing.T) {
	repo := newStubDriverRepo()
	rec := newDirectoryCounter()
	svc := NewDriverService(repo, zerolog.Nop(), WithDirectoryRecorder(rec))
	if _, err := svc.CreateDriver(context.Background(), validInput()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ports.DriverInput)
		want   domain.UniqueField
	}{
		{"all three collide", func(in *ports.DriverInput) {}, domain.FieldEmail},
		{"email differs by case only", func(in *ports.DriverInput) { in.Email = "ANA@example.com" }, domain.FieldEmail},
		{"tax id and license collide", func(in *ports.DriverInput) { in.Email = "other@example.com" }, domain.FieldTaxID},
		{"tax id formatted differently", func(in *ports.DriverInput) {
			in.Email = "other@example.com"
			in.TaxID = "52998224725"
		}, domain.FieldTaxID},
		{"license only", func(in *ports.DriverInput) {
			in.Email = "other@example.com"
			in.TaxID = "111.444.777-35"
		}, domain.FieldLicenseNumber},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateDriver(context.Background(), in)
			f, ok := domain.DuplicateField(err)
			if !ok {
				t.Fatalf("expected duplicate error, got %v", err)
			}
			if f != tc.want {
				t.Fatalf("expected field %s, got %s", tc.want, f)
			}
		})
	}

	if len(repo.drivers) != 1 {
		t.Fatalf("expected a single stored driver, got %d", len(repo.drivers))
	}
	if rec.duplicates[domain.FieldEmail] != 2 || rec.duplicates[domain.FieldTaxID] != 2 || rec.duplicates[domain.FieldLicenseNumber] != 1 {
		t.Fatalf("unexpected duplicate counters: %v", rec.duplicates)
	}
}

func TestDriverService_Create_StoreConstraintWins(t *testing.T) {
	repo := newStubDriverRepo()
	svc := NewDriverService(repo, zerolog.Nop())
	if _, err := svc.CreateDriver(context.Background(), validInput()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	repo.skipExists = true
	_, err := svc.CreateDriver(context.Background(), validInput())
	if f, ok := domain.DuplicateField(err); !ok || f != domain.FieldEmail {
		t.Fatalf("expected email duplicate from store, got %v", err)
	}
}

func TestDriverService_Create_ExistsError(t *testing.T) {
	repo := newStubDriverRepo()
	boom := errors.New("store down")
	repo.existsErr = boom
	svc := NewDriverService(repo, zerolog.Nop())

	if _, err := svc.CreateDriver(context.Background(), validInput()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDriverService_Create_ConcurrentSameEmail(t *testing.T) {
	repo := newStubDriverRepo()
	guard := newStubGuard()
	svc := NewDriverService(repo, zerolog.Nop(), WithUniqueKeyGuard(guard))

	taxIDs := []string{"52998224725", "11144477735", "12345678909", "98765432100", "39053344705", "24681357928", "13579246828"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, duplicates := 0, 0
	for i, taxID := range taxIDs {
		wg.Add(1)
		go func(i int, taxID string) {
			defer wg.Done()
			in := validInput()
			in.TaxID = taxID
			in.LicenseNumber = fmt.Sprintf("LIC-%d", i)
			_, err := svc.CreateDriver(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			switch f, ok := domain.DuplicateField(err); {
			case err == nil:
				successes++
			case ok && f == domain.FieldEmail:
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i, taxID)
	}
	wg.Wait()

	if successes != 1 || duplicates != len(taxIDs)-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", len(taxIDs)-1, successes, duplicates)
	}
	if len(guard.held) != 0 {
		t.Fatalf("all claims should be released, still held: %v", guard.held)
	}
}

func TestDriverService_Create_GuardFailureFallsBackToStore(t *testing.T) {
	repo := newStubDriverRepo()
	guard := newStubGuard()
	guard.err = errors.New("redis unavailable")
	svc := NewDriverService(repo, zerolog.Nop(), WithUniqueKeyGuard(guard))

	if _, err := svc.CreateDriver(context.Background(), validInput()); err != nil {
		t.Fatalf("create should succeed without claims: %v", err)
	}
	if _, err := svc.CreateDriver(context.Background(), validInput()); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestDriverService_Update_SelfMatchAllowed(t *testing.T) {
	repo := newStubDriverRepo()
	guard := newStubGuard()
	rec := newDirectoryCounter()
	svc := NewDriverService(repo, zerolog.Nop(), WithUniqueKeyGuard(guard), WithDirectoryRecorder(rec))

	created, err := svc.CreateDriver(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	in := validInput()
	in.Name = "Ana Maria Souza"
	in.Email = "ANA@EXAMPLE.COM"
	in.TaxID = "52998224725"
	in.City = "Campinas"
	in.VehicleTypes = []domain.VehicleType{domain.VehicleMotorcycle}

	updated, err := svc.UpdateDriver(context.Background(), created.ID, in)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Ana Maria Souza" || updated.City != "Campinas" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if len(updated.VehicleTypes) != 1 || updated.VehicleTypes[0] != domain.VehicleMotorcycle {
		t.Fatalf("vehicle types not replaced: %v", updated.VehicleTypes)
	}
	if !updated.Available {
		t.Fatalf("availability must be preserved")
	}
	if rec.updated != 1 {
		t.Fatalf("expected updated counter 1, got %d", rec.updated)
	}
}

func TestDriverService_Update_CollidesWithOther(t *testing.T) {
	repo := newStubDriverRepo()
	svc := NewDriverService(repo, zerolog.Nop())

	first, err := svc.CreateDriver(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	other := validInput()
	other.Email = "bruno@example.com"
	other.TaxID = "11144477735"
	other.LicenseNumber = "RJ999"
	second, err := svc.CreateDriver(context.Background(), other)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	in := other
	in.LicenseNumber = "SP123456"
	_, err = svc.UpdateDriver(context.Background(), second.ID, in)
	if f, ok := domain.DuplicateField(err); !ok || f != domain.FieldLicenseNumber {
		t.Fatalf("expected license duplicate, got %v", err)
	}

	stored, _ := svc.GetDriver(context.Background(), second.ID)
	if stored.LicenseNumber != "RJ999" {
		t.Fatalf("failed update must not persist, got %q", stored.LicenseNumber)
	}
	if _, err := svc.GetDriver(context.Background(), first.ID); err != nil {
		t.Fatalf("first driver should be untouched: %v", err)
	}
}

func TestDriverService_NotFound(t *testing.T) {
	svc := NewDriverService(newStubDriverRepo(), zerolog.Nop())
	ctx := context.Background()
	missing := "5f1f0d8e-7f47-4c6b-9a52-1f0c8f4b2a10"

	for _, id := range []string{missing, "not-a-uuid", ""} {
		if _, err := svc.GetDriver(ctx, id); !errors.Is(err, domain.ErrDriverNotFound) {
			t.Fatalf("get %q: expected not found, got %v", id, err)
		}
		if _, err := svc.UpdateDriver(ctx, id, validInput()); !errors.Is(err, domain.ErrDriverNotFound) {
			t.Fatalf("update %q: expected not found, got %v", id, err)
		}
		if err := svc.DeleteDriver(ctx, id, "admin"); !errors.Is(err, domain.ErrDriverNotFound) {
			t.Fatalf("delete %q: expected not found, got %v", id, err)
		}
	}
}

func TestDriverService_Delete(t *testing.T) {
	repo := newStubDriverRepo()
	rec := newDirectoryCounter()
	svc := NewDriverService(repo, zerolog.Nop(), WithDirectoryRecorder(rec))
	ctx := context.Background()

	created, err := svc.CreateDriver(ctx, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.DeleteDriver(ctx, created.ID, "admin"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.DeleteDriver(ctx, created.ID, "admin"); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if _, err := svc.CreateDriver(ctx, validInput()); err != nil {
		t.Fatalf("values of a deleted driver must be reusable: %v", err)
	}
	if rec.deleted != 1 {
		t.Fatalf("expected deleted counter 1, got %d", rec.deleted)
	}
}

func TestDriverService_List_Paging(t *testing.T) {
	repo := newStubDriverRepo()
	rec := newDirectoryCounter()
	svc := NewDriverService(repo, zerolog.Nop(), WithDirectoryRecorder(rec))
	ctx := context.Background()

	taxIDs := []string{"52998224725", "11144477735", "12345678909", "98765432100", "39053344705", "24681357928", "13579246828"}
	for i, taxID := range taxIDs {
		in := validInput()
		in.Name = fmt.Sprintf("Driver %02d", i)
		in.Email = fmt.Sprintf("d%d@example.com", i)
		in.TaxID = taxID
		in.LicenseNumber = fmt.Sprintf("LIC-%d", i)
		if _, err := svc.CreateDriver(ctx, in); err != nil {
			t.Fatalf("seed %d failed: %v", i, err)
		}
	}

	cases := []struct {
		name      string
		in        ports.ListDriversInput
		wantPage  int
		wantSize  int
		wantItems int
		wantPages int
	}{
		{"defaults", ports.ListDriversInput{}, 0, 10, 7, 1},
		{"first page of three", ports.ListDriversInput{Size: 3}, 0, 3, 3, 3},
		{"last partial page", ports.ListDriversInput{Page: 2, Size: 3}, 2, 3, 1, 3},
		{"beyond the end", ports.ListDriversInput{Page: 5, Size: 3}, 5, 3, 0, 3},
		{"negative page", ports.ListDriversInput{Page: -1, Size: 3}, 0, 3, 3, 3},
		{"size capped", ports.ListDriversInput{Size: 1000}, 0, 100, 7, 1},
		{"page overflowing the offset", ports.ListDriversInput{Page: math.MaxInt / 5, Size: 10}, math.MaxInt / 5, 10, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.ListDrivers(ctx, tc.in)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if res.Page != tc.wantPage || res.Size != tc.wantSize {
				t.Fatalf("unexpected page/size: %d/%d", res.Page, res.Size)
			}
			if len(res.Items) != tc.wantItems {
				t.Fatalf("expected %d items, got %d", tc.wantItems, len(res.Items))
			}
			if res.Total != 7 || res.TotalPages != tc.wantPages {
				t.Fatalf("unexpected totals: %d/%d", res.Total, res.TotalPages)
			}
		})
	}

	if rec.lists != len(cases) {
		t.Fatalf("expected %d list observations, got %d", len(cases), rec.lists)
	}
}

func TestDriverService_List_Filters(t *testing.T) {
	repo := newStubDriverRepo()
	svc := NewDriverService(repo, zerolog.Nop())
	ctx := context.Background()

	seed := []ports.DriverInput{
		{Name: "Ana", Email: "ana@example.com", Phone: "1", TaxID: "52998224725", LicenseNumber: "A1", City: "São Paulo", State: "SP", VehicleTypes: []domain.VehicleType{domain.VehicleCar}},
		{Name: "Bruno", Email: "bruno@example.com", Phone: "2", TaxID: "11144477735", LicenseNumber: "B1", City: "Rio de Janeiro", State: "RJ", VehicleTypes: []domain.VehicleType{domain.VehicleTruck}},
		{Name: "Carla", Email: "carla@example.com", Phone: "3", TaxID: "12345678909", LicenseNumber: "C1", City: "Campinas", State: "SP", VehicleTypes: []domain.VehicleType{domain.VehicleMotorcycle, domain.VehicleTruck}},
	}
	for _, in := range seed {
		if _, err := svc.CreateDriver(ctx, in); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	cases := []struct {
		name string
		in   ports.ListDriversInput
		want []string
	}{
		{"no filters", ports.ListDriversInput{}, []string{"Ana", "Bruno", "Carla"}},
		{"state", ports.ListDriversInput{State: "sp"}, []string{"Ana", "Carla"}},
		{"text by email", ports.ListDriversInput{Text: "BRUNO@"}, []string{"Bruno"}},
		{"vehicles any of", ports.ListDriversInput{Vehicles: []domain.VehicleType{domain.VehicleTruck}}, []string{"Bruno", "Carla"}},
		{"combined", ports.ListDriversInput{State: "SP", Vehicles: []domain.VehicleType{domain.VehicleTruck}}, []string{"Carla"}},
		{"city substring", ports.ListDriversInput{City: "camp"}, []string{"Carla"}},
		{"no match", ports.ListDriversInput{State: "MG"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.ListDrivers(ctx, tc.in)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			var names []string
			for _, it := range res.Items {
				names = append(names, it.Name)
			}
			if fmt.Sprint(names) != fmt.Sprint(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, names)
			}
			if res.Total != int64(len(tc.want)) {
				t.Fatalf("expected total %d, got %d", len(tc.want), res.Total)
			}
		})
	}
}

func TestDriverService_List_HugePageOnMemoryStore(t *testing.T) {
	svc := NewDriverService(memory.NewDriverRepository(), zerolog.Nop())
	ctx := context.Background()
	if _, err := svc.CreateDriver(ctx, validInput()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res, err := svc.ListDrivers(ctx, ports.ListDriversInput{Page: math.MaxInt / 5, Size: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 1 || res.TotalPages != 1 {
		t.Fatalf("expected an empty page past the end, got %+v", res)
	}
}
