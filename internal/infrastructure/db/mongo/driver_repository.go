package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

const collectionDrivers = "drivers"

// uniqueIndexes maps each unique field to its document key and index name.
var uniqueIndexes = []struct {
	field domain.UniqueField
	key   string
	name  string
}{
	{domain.FieldEmail, "email", "uniq_email"},
	{domain.FieldTaxID, "tax_id", "uniq_tax_id"},
	{domain.FieldLicenseNumber, "license_number", "uniq_license_number"},
}

// nameCollation makes the name sort case-insensitive.
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

type DriverRepository struct {
	col *mongo.Collection
}

func NewDriverRepository(db *mongo.Database) *DriverRepository {
	return &DriverRepository{col: db.Collection(collectionDrivers)}
}

// Create inserts a new driver document.
func (r *DriverRepository) Create(ctx context.Context, d *domain.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update replaces the whole document.
func (r *DriverRepository) Update(ctx context.Context, d *domain.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) FindByID(ctx context.Context, id string) (*domain.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Driver
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDriverNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DriverRepository) ExistsByField(ctx context.Context, field domain.UniqueField, value string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key, ok := uniqueKey(field)
	if !ok {
		return false, fmt.Errorf("unknown unique field %q", field)
	}
	n, err := r.col.CountDocuments(ctx, bson.M{key: value}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List translates pred into a query document and pages through the matches
// sorted by name, then id.
func (r *DriverRepository) List(ctx context.Context, pred filter.Predicate, page ports.PageRequest) ([]*domain.Driver, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, err := Translate(pred)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count drivers: %w", err)
	}

	opts := options.Find().
		SetCollation(nameCollation).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find drivers: %w", err)
	}
	defer cur.Close(ctx)

	drivers := make([]*domain.Driver, 0, page.Size)
	for cur.Next(ctx) {
		var d domain.Driver
		if err := cur.Decode(&d); err != nil {
			return nil, 0, err
		}
		drivers = append(drivers, &d)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

// EnsureIndexes creates the unique indexes that back the uniqueness rules,
// plus a state index for the most common filter.
func (r *DriverRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := make([]mongo.IndexModel, 0, len(uniqueIndexes)+1)
	for _, idx := range uniqueIndexes {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: idx.key, Value: 1}},
			Options: options.Index().SetName(idx.name).SetUnique(true),
		})
	}
	indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}}})

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// Ping reports whether the server is reachable.
func (r *DriverRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func uniqueKey(f domain.UniqueField) (string, bool) {
	for _, idx := range uniqueIndexes {
		if idx.field == f {
			return idx.key, true
		}
	}
	return "", false
}

// mapWriteError turns a duplicate key error into *domain.DuplicateError by
// looking for the violated index name in the server message.
func mapWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, idx := range uniqueIndexes {
		if strings.Contains(msg, idx.name) {
			return domain.NewDuplicateError(idx.field)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
}
