package filter

import (
	"strings"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// Criteria holds the optional search dimensions of a list request.
// Blank strings and an empty vehicle list are inactive.
type Criteria struct {
	Text     string
	State    string
	City     string
	Vehicles []domain.VehicleType
}

// textFields are searched by the free-text dimension.
var textFields = []Field{FieldName, FieldEmail, FieldTaxID, FieldLicenseNumber, FieldPhone}

// Compile builds the conjunction of the active dimensions of c.
func Compile(c Criteria) Predicate {
	return AllOf(
		textPredicate(c.Text),
		statePredicate(c.State),
		cityPredicate(c.City),
		vehiclePredicate(c.Vehicles),
	)
}

func textPredicate(text string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	ors := make([]Predicate, 0, len(textFields))
	for _, f := range textFields {
		v := needle
		if f == FieldTaxID {
			v = taxIDNeedle(needle)
		}
		ors = append(ors, Contains{Field: f, Value: v})
	}
	return AnyOf(ors...)
}

// taxIDNeedle strips CPF punctuation from a needle made only of digits and
// punctuation, since tax IDs are stored as bare digits. Any other text is
// searched as typed.
func taxIDNeedle(needle string) string {
	for i := 0; i < len(needle); i++ {
		c := needle[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != ' ' {
			return needle
		}
	}
	if digits := domain.NormalizeTaxID(needle); digits != "" {
		return digits
	}
	return needle
}

func statePredicate(state string) Predicate {
	v := strings.ToLower(strings.TrimSpace(state))
	if v == "" {
		return nil
	}
	return Equals{Field: FieldState, Value: v}
}

func cityPredicate(city string) Predicate {
	v := strings.ToLower(strings.TrimSpace(city))
	if v == "" {
		return nil
	}
	return Contains{Field: FieldCity, Value: v}
}

func vehiclePredicate(vehicles []domain.VehicleType) Predicate {
	vs := domain.NormalizeVehicleTypes(vehicles)
	if len(vs) == 0 {
		return nil
	}
	return AnyVehicle(vs)
}
