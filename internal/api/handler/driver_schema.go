package handler

import "strings"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
// Field is set on 409 responses and names the colliding attribute.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// --- Request / Response types ---

type driverRequest struct {
	Name          string   `json:"name"          validate:"required,max=120"`
	Email         string   `json:"email"         validate:"required,email"`
	Phone         string   `json:"phone"         validate:"required,max=30"`
	TaxID         string   `json:"taxId"         validate:"required,cpf"`
	LicenseNumber string   `json:"licenseNumber" validate:"required,max=30"`
	City          string   `json:"city"          validate:"required,max=120"`
	State         string   `json:"state"         validate:"required,len=2,alpha"`
	VehicleTypes  []string `json:"vehicleTypes"  validate:"required,min=1,dive,vehicletype"`
}

// trim strips surrounding whitespace so validation sees what will be stored.
func (r *driverRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.LicenseNumber = strings.TrimSpace(r.LicenseNumber)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	for i, v := range r.VehicleTypes {
		r.VehicleTypes[i] = strings.TrimSpace(v)
	}
}

type driverResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	TaxID         string   `json:"taxId"`
	LicenseNumber string   `json:"licenseNumber"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Available     bool     `json:"available"`
	VehicleTypes  []string `json:"vehicleTypes"`
}

type driverSummaryResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	VehicleTypes []string `json:"vehicleTypes"`
	Available    bool     `json:"available"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

type listDriversResponse struct {
	Data       []driverSummaryResponse `json:"data"`
	Pagination paginationResponse      `json:"pagination"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
