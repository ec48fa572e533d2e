package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

// DriverHandler handles HTTP requests for the driver directory. Domain errors
// are returned as-is and rendered by the API error handler.
type DriverHandler struct {
	service ports.DriverService
}

func NewDriverHandler(service ports.DriverService) *DriverHandler {
	return &DriverHandler{service: service}
}

// Create handles POST /drivers.
//
// @Summary      Register a driver
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      driverRequest  true  "Driver details"
// @Success      201   {object}  driverResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /drivers [post]
func (h *DriverHandler) Create(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}
	req, err := bindDriver(c)
	if err != nil {
		return err
	}

	detail, err := h.service.CreateDriver(c.Request().Context(), toDriverInput(req, subject))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDriverResponse(detail))
}

// List handles GET /drivers.
//
// @Summary      Search drivers
// @Description  All filters are optional and combined with AND. text matches name, email, taxId, licenseNumber or phone.
// @Tags         drivers
// @Produce      json
// @Security     BearerAuth
// @Param        text      query     string    false  "Free-text search"
// @Param        state     query     string    false  "Two-letter state, exact match"
// @Param        city      query     string    false  "City, substring match"
// @Param        vehicles  query     []string  false  "Vehicle types, any of (repeatable or comma-separated)"  collectionFormat(multi)
// @Param        page      query     int       false  "Page number, 0-based"  default(0)
// @Param        size      query     int       false  "Page size, at most 100"  default(10)
// @Success      200       {object}  listDriversResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /drivers [get]
func (h *DriverHandler) List(c echo.Context) error {
	var (
		page, size  int
		rawVehicles []string
	)
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("size", &size).
		Strings("vehicles", &rawVehicles).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and size must be integers")
	}

	vehicles, err := parseVehicles(rawVehicles)
	if err != nil {
		return err
	}

	res, err := h.service.ListDrivers(c.Request().Context(), ports.ListDriversInput{
		Text:     c.QueryParam("text"),
		State:    c.QueryParam("state"),
		City:     c.QueryParam("city"),
		Vehicles: vehicles,
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}

// Get handles GET /drivers/:id.
//
// @Summary      Get a driver
// @Tags         drivers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Driver ID (UUID)"
// @Success      200  {object}  driverResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /drivers/{id} [get]
func (h *DriverHandler) Get(c echo.Context) error {
	detail, err := h.service.GetDriver(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(detail))
}

// Update handles PUT /drivers/:id.
//
// @Summary      Replace a driver's details
// @Description  Availability is not changed. Unique fields left unchanged are not re-checked.
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Driver ID (UUID)"
// @Param        body  body      driverRequest  true  "Driver details"
// @Success      200   {object}  driverResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /drivers/{id} [put]
func (h *DriverHandler) Update(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}
	req, err := bindDriver(c)
	if err != nil {
		return err
	}

	detail, err := h.service.UpdateDriver(c.Request().Context(), c.Param("id"), toDriverInput(req, subject))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDriverResponse(detail))
}

// Delete handles DELETE /drivers/:id.
//
// @Summary      Remove a driver
// @Tags         drivers
// @Security     BearerAuth
// @Param        id   path  string  true  "Driver ID (UUID)"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /drivers/{id} [delete]
func (h *DriverHandler) Delete(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteDriver(c.Request().Context(), c.Param("id"), subject); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bindDriver(c echo.Context) (driverRequest, error) {
	var req driverRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.trim()
	if err := c.Validate(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return req, nil
}

// parseVehicles accepts repeated and comma-separated values in any letter case.
func parseVehicles(raw []string) ([]domain.VehicleType, error) {
	var out []domain.VehicleType
	for _, param := range raw {
		for _, part := range strings.Split(param, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			v, ok := domain.ParseVehicleType(part)
			if !ok {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "vehicles must be one of CAR, MOTORCYCLE, TRUCK")
			}
			out = append(out, v)
		}
	}
	return out, nil
}
