package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/filter"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

const uniqueViolation = "23505"

// constraintFields maps unique constraint names onto the fields they protect.
var constraintFields = map[string]domain.UniqueField{
	"drivers_email_key":          domain.FieldEmail,
	"drivers_tax_id_key":         domain.FieldTaxID,
	"drivers_license_number_key": domain.FieldLicenseNumber,
}

var uniqueColumns = map[domain.UniqueField]string{
	domain.FieldEmail:         "email",
	domain.FieldTaxID:         "tax_id",
	domain.FieldLicenseNumber: "license_number",
}

const selectDriver = `
	SELECT d.id::text, d.name, d.email, d.phone, d.tax_id, d.license_number, d.city, d.state,
	       d.available, d.created_at, d.updated_at,
	       ARRAY(SELECT v.vehicle_type FROM driver_vehicle_types v WHERE v.driver_id = d.id)
	FROM drivers d`

// DriverRepository is the PostgreSQL implementation of ports.DriverRepository.
// Vehicle types live in driver_vehicle_types, one row per type.
type DriverRepository struct {
	pool *pgxpool.Pool
}

func NewDriverRepository(pool *pgxpool.Pool) *DriverRepository {
	return &DriverRepository{pool: pool}
}

func (r *DriverRepository) Create(ctx context.Context, d *domain.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO drivers (id, name, email, phone, tax_id, license_number, city, state, available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			d.ID, d.Name, d.Email, d.Phone, d.TaxID, d.LicenseNumber, d.City, d.State, d.Available, d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err)
		}
		return insertVehicles(ctx, tx, d)
	})
}

func (r *DriverRepository) Update(ctx context.Context, d *domain.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE drivers
			SET name = $2, email = $3, phone = $4, tax_id = $5, license_number = $6,
			    city = $7, state = $8, available = $9, updated_at = $10
			WHERE id = $1`,
			d.ID, d.Name, d.Email, d.Phone, d.TaxID, d.LicenseNumber, d.City, d.State, d.Available, d.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDriverNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM driver_vehicle_types WHERE driver_id = $1`, d.ID); err != nil {
			return fmt.Errorf("clear vehicle types: %w", err)
		}
		return insertVehicles(ctx, tx, d)
	})
}

func (r *DriverRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) FindByID(ctx context.Context, id string) (*domain.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d, err := scanDriver(r.pool.QueryRow(ctx, selectDriver+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDriverNotFound
		}
		return nil, fmt.Errorf("query driver by id: %w", err)
	}
	return d, nil
}

func (r *DriverRepository) ExistsByField(ctx context.Context, field domain.UniqueField, value string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col, ok := uniqueColumns[field]
	if !ok {
		return false, fmt.Errorf("unknown unique field %q", field)
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM drivers WHERE %s = $1)`, col)
	if err := r.pool.QueryRow(ctx, query, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", field, err)
	}
	return exists, nil
}

func (r *DriverRepository) List(ctx context.Context, pred filter.Predicate, page ports.PageRequest) ([]*domain.Driver, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args, err := Translate(pred)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM drivers d WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drivers: %w", err)
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY lower(d.name), d.id LIMIT $%d OFFSET $%d`,
		selectDriver, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0, page.Size)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate drivers: %w", err)
	}
	return drivers, total, nil
}

// Ping reports whether the database is reachable.
func (r *DriverRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func insertVehicles(ctx context.Context, tx pgx.Tx, d *domain.Driver) error {
	if len(d.VehicleTypes) == 0 {
		return nil
	}
	vs := make([]string, len(d.VehicleTypes))
	for i, v := range d.VehicleTypes {
		vs[i] = string(v)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO driver_vehicle_types (driver_id, vehicle_type)
		SELECT $1, unnest($2::text[])`, d.ID, vs)
	if err != nil {
		return fmt.Errorf("insert vehicle types: %w", err)
	}
	return nil
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var (
		d        domain.Driver
		vehicles []string
	)
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.TaxID,
		&d.LicenseNumber,
		&d.City,
		&d.State,
		&d.Available,
		&d.CreatedAt,
		&d.UpdatedAt,
		&vehicles,
	)
	if err != nil {
		return nil, err
	}
	vs := make([]domain.VehicleType, len(vehicles))
	for i, v := range vehicles {
		vs[i] = domain.VehicleType(v)
	}
	d.VehicleTypes = domain.NormalizeVehicleTypes(vs)
	return &d, nil
}

// mapWriteError turns a unique violation into *domain.DuplicateError.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if f, ok := constraintFields[pgErr.ConstraintName]; ok {
			return domain.NewDuplicateError(f)
		}
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
