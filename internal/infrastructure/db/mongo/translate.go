package mongo

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fretemais/driver-directory/internal/core/filter"
)

// documentKeys maps filter fields onto stored document keys.
var documentKeys = map[filter.Field]string{
	filter.FieldName:          "name",
	filter.FieldEmail:         "email",
	filter.FieldTaxID:         "tax_id",
	filter.FieldLicenseNumber: "license_number",
	filter.FieldPhone:         "phone",
	filter.FieldCity:          "city",
	filter.FieldState:         "state",
}

// matchNone is a query that no document satisfies.
var matchNone = bson.M{"_id": bson.M{"$in": bson.A{}}}

// Translate renders a predicate tree as a MongoDB query document.
// A nil predicate matches every document.
func Translate(p filter.Predicate) (bson.M, error) {
	switch n := p.(type) {
	case nil, filter.All:
		return bson.M{}, nil
	case filter.And:
		if len(n) == 0 {
			return bson.M{}, nil
		}
		parts, err := translateAll(n)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": parts}, nil
	case filter.Or:
		if len(n) == 0 {
			return matchNone, nil
		}
		parts, err := translateAll(n)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": parts}, nil
	case filter.Contains:
		k, err := key(n.Field)
		if err != nil {
			return nil, err
		}
		return bson.M{k: primitive.Regex{Pattern: regexp.QuoteMeta(n.Value), Options: "i"}}, nil
	case filter.Equals:
		k, err := key(n.Field)
		if err != nil {
			return nil, err
		}
		return bson.M{k: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(n.Value) + "$", Options: "i"}}, nil
	case filter.AnyVehicle:
		if len(n) == 0 {
			return matchNone, nil
		}
		vs := make(bson.A, 0, len(n))
		for _, v := range n {
			vs = append(vs, string(v))
		}
		return bson.M{"vehicle_types": bson.M{"$in": vs}}, nil
	default:
		return nil, fmt.Errorf("mongo: unsupported predicate %T", p)
	}
}

func translateAll(ps []filter.Predicate) (bson.A, error) {
	parts := make(bson.A, 0, len(ps))
	for _, c := range ps {
		q, err := Translate(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}
	return parts, nil
}

func key(f filter.Field) (string, error) {
	if k, ok := documentKeys[f]; ok {
		return k, nil
	}
	return "", fmt.Errorf("mongo: unsupported filter field %q", f)
}
