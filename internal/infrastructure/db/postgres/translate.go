package postgres

import (
	"fmt"
	"strings"

	"github.com/fretemais/driver-directory/internal/core/filter"
)

// columns maps filter fields onto columns of the drivers table, aliased d.
var columns = map[filter.Field]string{
	filter.FieldName:          "d.name",
	filter.FieldEmail:         "d.email",
	filter.FieldTaxID:         "d.tax_id",
	filter.FieldLicenseNumber: "d.license_number",
	filter.FieldPhone:         "d.phone",
	filter.FieldCity:          "d.city",
	filter.FieldState:         "d.state",
}

// Translate renders a predicate tree as a parameterized WHERE clause over
// drivers d. Placeholders start at $1; args holds their values in order.
func Translate(p filter.Predicate) (where string, args []any, err error) {
	b := &whereBuilder{}
	where, err = b.build(p)
	if err != nil {
		return "", nil, err
	}
	return where, b.args, nil
}

type whereBuilder struct {
	args []any
}

func (b *whereBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) build(p filter.Predicate) (string, error) {
	switch n := p.(type) {
	case nil, filter.All:
		return "TRUE", nil
	case filter.And:
		if len(n) == 0 {
			return "TRUE", nil
		}
		return b.join(n, " AND ")
	case filter.Or:
		if len(n) == 0 {
			return "FALSE", nil
		}
		return b.join(n, " OR ")
	case filter.Contains:
		col, err := column(n.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("strpos(lower(%s), %s) > 0", col, b.bind(n.Value)), nil
	case filter.Equals:
		col, err := column(n.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("lower(%s) = %s", col, b.bind(n.Value)), nil
	case filter.AnyVehicle:
		if len(n) == 0 {
			return "FALSE", nil
		}
		vs := make([]string, len(n))
		for i, v := range n {
			vs[i] = string(v)
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM driver_vehicle_types v WHERE v.driver_id = d.id AND v.vehicle_type = ANY(%s))",
			b.bind(vs),
		), nil
	default:
		return "", fmt.Errorf("postgres: unsupported predicate %T", p)
	}
}

func (b *whereBuilder) join(ps []filter.Predicate, sep string) (string, error) {
	parts := make([]string, 0, len(ps))
	for _, c := range ps {
		s, err := b.build(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func column(f filter.Field) (string, error) {
	if c, ok := columns[f]; ok {
		return c, nil
	}
	return "", fmt.Errorf("postgres: unsupported filter field %q", f)
}
