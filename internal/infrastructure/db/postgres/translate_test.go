package postgres

import (
	"reflect"
	"testing"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
)

type unknownPredicate struct{}

func (unknownPredicate) Match(*domain.Driver) bool { return false }

func TestTranslate(t *testing.T) {
	cases := []struct {
		name      string
		in        filter.Predicate
		wantWhere string
		wantArgs  []any
	}{
		{"nil", nil, "TRUE", nil},
		{"all", filter.All{}, "TRUE", nil},
		{"empty or", filter.Or{}, "FALSE", nil},
		{"contains", filter.Contains{Field: filter.FieldCity, Value: "paulo"}, "strpos(lower(d.city), $1) > 0", []any{"paulo"}},
		{"equals", filter.Equals{Field: filter.FieldState, Value: "sp"}, "lower(d.state) = $1", []any{"sp"}},
		{
			"any vehicle",
			filter.AnyVehicle{domain.VehicleCar, domain.VehicleTruck},
			"EXISTS (SELECT 1 FROM driver_vehicle_types v WHERE v.driver_id = d.id AND v.vehicle_type = ANY($1))",
			[]any{[]string{"CAR", "TRUCK"}},
		},
		{
			"compiled criteria numbers placeholders in order",
			filter.Compile(filter.Criteria{Text: "Ana", State: "SP", City: "Campinas"}),
			"((strpos(lower(d.name), $1) > 0 OR strpos(lower(d.email), $2) > 0 OR strpos(lower(d.tax_id), $3) > 0" +
				" OR strpos(lower(d.license_number), $4) > 0 OR strpos(lower(d.phone), $5) > 0)" +
				" AND lower(d.state) = $6 AND strpos(lower(d.city), $7) > 0)",
			[]any{"ana", "ana", "ana", "ana", "ana", "sp", "campinas"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args, err := Translate(tc.in)
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			if where != tc.wantWhere {
				t.Fatalf("where mismatch\nwant %s\ngot  %s", tc.wantWhere, where)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("args mismatch: want %v got %v", tc.wantArgs, args)
			}
		})
	}
}

func TestTranslate_Unsupported(t *testing.T) {
	if _, _, err := Translate(filter.Or{filter.Contains{Field: filter.FieldName, Value: "a"}, unknownPredicate{}}); err == nil {
		t.Fatalf("expected error for unknown node")
	}
	if _, _, err := Translate(filter.Equals{Field: "nickname", Value: "x"}); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
