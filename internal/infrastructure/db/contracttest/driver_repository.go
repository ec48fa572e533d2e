// Package contracttest holds the behaviour every ports.DriverRepository must show.
// Adapter packages call Run from their own tests.
package contracttest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) ports.DriverRepository

var validTaxIDs = []string{"52998224725", "11144477735", "12345678909", "98765432100", "39053344705", "24681357928", "13579246828"}

// Run executes the contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, repo ports.DriverRepository)
	}{
		{"CreateAndFind", testCreateAndFind},
		{"FindMissing", testFindMissing},
		{"DuplicateOnCreate", testDuplicateOnCreate},
		{"ExistsByField", testExistsByField},
		{"Update", testUpdate},
		{"UpdateDuplicate", testUpdateDuplicate},
		{"UpdateMissing", testUpdateMissing},
		{"DeleteReleasesValues", testDeleteReleasesValues},
		{"DeleteMissing", testDeleteMissing},
		{"ListFilters", testListFilters},
		{"ListPaging", testListPaging},
		{"ConcurrentCreate", testConcurrentCreate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newRepo(t))
		})
	}
}

// NewDriver builds a valid, normalized driver. n selects distinct unique values.
func NewDriver(n int, name string) *domain.Driver {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Driver{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         fmt.Sprintf("driver%d@example.com", n),
		Phone:         fmt.Sprintf("1199999%04d", n),
		TaxID:         validTaxIDs[n%len(validTaxIDs)],
		LicenseNumber: fmt.Sprintf("LIC-%04d", n),
		City:          "São Paulo",
		State:         "SP",
		Available:     true,
		VehicleTypes:  []domain.VehicleType{domain.VehicleCar},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func mustCreate(t *testing.T, repo ports.DriverRepository, d *domain.Driver) {
	t.Helper()
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("create %s: %v", d.Name, err)
	}
}

func testCreateAndFind(t *testing.T, repo ports.DriverRepository) {
	d := NewDriver(0, "Ana")
	d.VehicleTypes = []domain.VehicleType{domain.VehicleCar, domain.VehicleTruck}
	mustCreate(t, repo, d)

	got, err := repo.FindByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != d.ID || got.Name != d.Name || got.Email != d.Email || got.TaxID != d.TaxID ||
		got.LicenseNumber != d.LicenseNumber || got.Phone != d.Phone || got.City != d.City ||
		got.State != d.State || got.Available != d.Available {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", d, got)
	}
	if fmt.Sprint(got.VehicleTypes) != fmt.Sprint(d.VehicleTypes) {
		t.Fatalf("vehicle types mismatch: want %v got %v", d.VehicleTypes, got.VehicleTypes)
	}

	got.Name = "mutated"
	again, _ := repo.FindByID(context.Background(), d.ID)
	if again.Name != "Ana" {
		t.Fatalf("returned driver must not alias stored state")
	}
}

func testFindMissing(t *testing.T, repo ports.DriverRepository) {
	if _, err := repo.FindByID(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func testDuplicateOnCreate(t *testing.T, repo ports.DriverRepository) {
	mustCreate(t, repo, NewDriver(0, "Ana"))

	cases := []struct {
		name   string
		mutate func(d *domain.Driver)
		want   domain.UniqueField
	}{
		{"email", func(d *domain.Driver) { d.Email = "driver0@example.com" }, domain.FieldEmail},
		{"tax id", func(d *domain.Driver) { d.TaxID = validTaxIDs[0] }, domain.FieldTaxID},
		{"license", func(d *domain.Driver) { d.LicenseNumber = "LIC-0000" }, domain.FieldLicenseNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDriver(1, "Bruno")
			tc.mutate(d)
			err := repo.Create(context.Background(), d)
			if f, ok := domain.DuplicateField(err); !ok || f != tc.want {
				t.Fatalf("expected duplicate %s, got %v", tc.want, err)
			}
		})
	}
}

func testExistsByField(t *testing.T, repo ports.DriverRepository) {
	d := NewDriver(0, "Ana")
	mustCreate(t, repo, d)
	ctx := context.Background()

	for _, f := range domain.UniqueFields {
		ok, err := repo.ExistsByField(ctx, f, d.UniqueValue(f))
		if err != nil || !ok {
			t.Fatalf("%s: expected exists, got %v %v", f, ok, err)
		}
		ok, err = repo.ExistsByField(ctx, f, "absent-"+d.UniqueValue(f))
		if err != nil || ok {
			t.Fatalf("%s: expected absent, got %v %v", f, ok, err)
		}
	}
}

func testUpdate(t *testing.T, repo ports.DriverRepository) {
	d := NewDriver(0, "Ana")
	mustCreate(t, repo, d)

	next := d.Clone()
	next.Name = "Ana Maria"
	next.Email = "ana.maria@example.com"
	next.VehicleTypes = []domain.VehicleType{domain.VehicleMotorcycle, domain.VehicleTruck}
	next.UpdatedAt = d.UpdatedAt.Add(time.Minute)
	if err := repo.Update(context.Background(), next); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Ana Maria" || got.Email != "ana.maria@example.com" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if fmt.Sprint(got.VehicleTypes) != "[MOTORCYCLE TRUCK]" {
		t.Fatalf("vehicle types not replaced: %v", got.VehicleTypes)
	}

	if ok, _ := repo.ExistsByField(context.Background(), domain.FieldEmail, d.Email); ok {
		t.Fatalf("old email should be free after update")
	}
}

func testUpdateDuplicate(t *testing.T, repo ports.DriverRepository) {
	a := NewDriver(0, "Ana")
	b := NewDriver(1, "Bruno")
	mustCreate(t, repo, a)
	mustCreate(t, repo, b)

	next := b.Clone()
	next.TaxID = a.TaxID
	err := repo.Update(context.Background(), next)
	if f, ok := domain.DuplicateField(err); !ok || f != domain.FieldTaxID {
		t.Fatalf("expected tax id duplicate, got %v", err)
	}

	got, _ := repo.FindByID(context.Background(), b.ID)
	if got.TaxID != b.TaxID {
		t.Fatalf("rejected update must not persist")
	}
}

func testUpdateMissing(t *testing.T, repo ports.DriverRepository) {
	if err := repo.Update(context.Background(), NewDriver(0, "Ghost")); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func testDeleteReleasesValues(t *testing.T, repo ports.DriverRepository) {
	d := NewDriver(0, "Ana")
	mustCreate(t, repo, d)
	if err := repo.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), d.ID); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	mustCreate(t, repo, NewDriver(0, "Ana again"))
}

func testDeleteMissing(t *testing.T, repo ports.DriverRepository) {
	if err := repo.Delete(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}

func testListFilters(t *testing.T, repo ports.DriverRepository) {
	ana := NewDriver(0, "Ana Souza")
	bruno := NewDriver(1, "bruno Lima")
	bruno.City, bruno.State = "Rio de Janeiro", "RJ"
	bruno.VehicleTypes = []domain.VehicleType{domain.VehicleTruck}
	carla := NewDriver(2, "Carla Dias")
	carla.City = "Campinas"
	carla.VehicleTypes = []domain.VehicleType{domain.VehicleMotorcycle, domain.VehicleTruck}
	for _, d := range []*domain.Driver{carla, bruno, ana} {
		mustCreate(t, repo, d)
	}

	cases := []struct {
		name     string
		criteria filter.Criteria
		want     []string
	}{
		{"all, sorted case-insensitively", filter.Criteria{}, []string{"Ana Souza", "bruno Lima", "Carla Dias"}},
		{"text on name", filter.Criteria{Text: "SOUZA"}, []string{"Ana Souza"}},
		{"text on email", filter.Criteria{Text: "driver1@"}, []string{"bruno Lima"}},
		{"text on tax id", filter.Criteria{Text: validTaxIDs[2][:6]}, []string{"Carla Dias"}},
		{"text on license", filter.Criteria{Text: "lic-0000"}, []string{"Ana Souza"}},
		{"state exact", filter.Criteria{State: "rj"}, []string{"bruno Lima"}},
		{"state is not a substring match", filter.Criteria{State: "S"}, nil},
		{"city substring", filter.Criteria{City: "PAULO"}, []string{"Ana Souza"}},
		{"vehicles any of", filter.Criteria{Vehicles: []domain.VehicleType{domain.VehicleTruck}}, []string{"bruno Lima", "Carla Dias"}},
		{"vehicles union", filter.Criteria{Vehicles: []domain.VehicleType{domain.VehicleCar, domain.VehicleMotorcycle}}, []string{"Ana Souza", "Carla Dias"}},
		{"all dimensions", filter.Criteria{Text: "dias", State: "SP", City: "camp", Vehicles: []domain.VehicleType{domain.VehicleTruck}}, []string{"Carla Dias"}},
		{"no match", filter.Criteria{Text: "zzz"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := repo.List(context.Background(), filter.Compile(tc.criteria), ports.PageRequest{Page: 0, Size: 10})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var names []string
			for _, d := range got {
				names = append(names, d.Name)
			}
			if fmt.Sprint(names) != fmt.Sprint(tc.want) {
				t.Fatalf("want %v, got %v", tc.want, names)
			}
			if total != int64(len(tc.want)) {
				t.Fatalf("want total %d, got %d", len(tc.want), total)
			}
		})
	}
}

func testListPaging(t *testing.T, repo ports.DriverRepository) {
	for i := 0; i < 7; i++ {
		mustCreate(t, repo, NewDriver(i, fmt.Sprintf("Driver %02d", i)))
	}

	cases := []struct {
		page, size int
		first      string
		count      int
	}{
		{0, 3, "Driver 00", 3},
		{1, 3, "Driver 03", 3},
		{2, 3, "Driver 06", 1},
		{3, 3, "", 0},
		{0, 10, "Driver 00", 7},
		{math.MaxInt / 5, 10, "", 0},
	}
	for _, tc := range cases {
		got, total, err := repo.List(context.Background(), filter.All{}, ports.PageRequest{Page: tc.page, Size: tc.size})
		if err != nil {
			t.Fatalf("page %d: %v", tc.page, err)
		}
		if total != 7 {
			t.Fatalf("page %d: want total 7, got %d", tc.page, total)
		}
		if len(got) != tc.count {
			t.Fatalf("page %d: want %d items, got %d", tc.page, tc.count, len(got))
		}
		if tc.count > 0 && got[0].Name != tc.first {
			t.Fatalf("page %d: want first %s, got %s", tc.page, tc.first, got[0].Name)
		}
	}
}

func testConcurrentCreate(t *testing.T, repo ports.DriverRepository) {
	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := NewDriver(i, fmt.Sprintf("Racer %d", i))
			d.Email = "same@example.com"
			d.TaxID = validTaxIDs[i%len(validTaxIDs)]
			d.LicenseNumber = fmt.Sprintf("RACE-%d", i)
			errs[i] = repo.Create(context.Background(), d)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicate):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one writer must win, got %d", ok)
	}

	_, total, err := repo.List(context.Background(), filter.Compile(filter.Criteria{Text: "same@example.com"}), ports.PageRequest{Size: 10})
	if err != nil || total != 1 {
		t.Fatalf("expected one stored racer, got %d (%v)", total, err)
	}
}
