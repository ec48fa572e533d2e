package ports

import (
	"context"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// DriverInput is the draft accepted by create and update.
type DriverInput struct {
	Name          string
	Email         string
	Phone         string
	TaxID         string
	LicenseNumber string
	City          string
	State         string
	VehicleTypes  []domain.VehicleType
	// Actor is the authenticated subject performing the change; used for logging only.
	Actor string
}

// DriverDetail is the full external representation of a driver.
type DriverDetail struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	TaxID         string
	LicenseNumber string
	City          string
	State         string
	Available     bool
	VehicleTypes  []domain.VehicleType
}

// DriverSummary is the lighter view used in list responses.
type DriverSummary struct {
	ID           string
	Name         string
	Phone        string
	City         string
	State        string
	Available    bool
	VehicleTypes []domain.VehicleType
}

// ListDriversInput carries the optional filters and paging of the list endpoint.
type ListDriversInput struct {
	Text     string
	State    string
	City     string
	Vehicles []domain.VehicleType
	Page     int // 0-based
	Size     int
}

// ListDriversResult is one page of summaries plus totals.
type ListDriversResult struct {
	Items      []DriverSummary
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// DriverService defines the directory use cases.
type DriverService interface {
	CreateDriver(ctx context.Context, in DriverInput) (*DriverDetail, error)
	GetDriver(ctx context.Context, id string) (*DriverDetail, error)
	ListDrivers(ctx context.Context, in ListDriversInput) (*ListDriversResult, error)
	UpdateDriver(ctx context.Context, id string, in DriverInput) (*DriverDetail, error)
	DeleteDriver(ctx context.Context, id, actor string) error
}
