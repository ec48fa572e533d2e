package handler

import (
	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

func toDriverInput(req driverRequest, actor string) ports.DriverInput {
	vehicles := make([]domain.VehicleType, 0, len(req.VehicleTypes))
	for _, raw := range req.VehicleTypes {
		if v, ok := domain.ParseVehicleType(raw); ok {
			vehicles = append(vehicles, v)
		}
	}
	return ports.DriverInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		TaxID:         req.TaxID,
		LicenseNumber: req.LicenseNumber,
		City:          req.City,
		State:         req.State,
		VehicleTypes:  vehicles,
		Actor:         actor,
	}
}

func toDriverResponse(d *ports.DriverDetail) driverResponse {
	return driverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		TaxID:         d.TaxID,
		LicenseNumber: d.LicenseNumber,
		City:          d.City,
		State:         d.State,
		Available:     d.Available,
		VehicleTypes:  vehicleNames(d.VehicleTypes),
	}
}

func toListResponse(res *ports.ListDriversResult) listDriversResponse {
	data := make([]driverSummaryResponse, len(res.Items))
	for i, s := range res.Items {
		data[i] = driverSummaryResponse{
			ID:           s.ID,
			Name:         s.Name,
			Phone:        s.Phone,
			City:         s.City,
			State:        s.State,
			VehicleTypes: vehicleNames(s.VehicleTypes),
			Available:    s.Available,
		}
	}
	return listDriversResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      res.Total,
			Page:       res.Page,
			Size:       res.Size,
			TotalPages: res.TotalPages,
		},
	}
}

func vehicleNames(vs []domain.VehicleType) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
