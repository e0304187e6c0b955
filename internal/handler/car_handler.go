package handler

import (
	"net/http"
	"strconv"

	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CarHandler struct {
	fleet *ledger.VehicleLedger
}

func NewCarHandler(fleet *ledger.VehicleLedger) *CarHandler {
	return &CarHandler{fleet: fleet}
}

func (h *CarHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleOwner, model.RoleMechanic)

	cars := router.Group("/api/cars", anyRole)
	{
		cars.POST("", h.CreateCar)
		cars.GET("", h.ListCars)
		cars.GET("/:id", h.GetCar)
		cars.PATCH("/:id", h.UpdateCar)
		cars.DELETE("/:id", h.DeleteCar)
		cars.PUT("/:id/mileage", h.UpdateMileage)
		cars.GET("/:id/stats", h.CarStats)

		cars.POST("/:id/maintenance", h.AddMaintenance)
		cars.PATCH("/:id/maintenance/:recordId", h.UpdateMaintenance)
		cars.DELETE("/:id/maintenance/:recordId", h.DeleteMaintenance)

		cars.POST("/:id/expenses", h.AddExpense)
		cars.PATCH("/:id/expenses/:expenseId", h.UpdateExpense)
		cars.DELETE("/:id/expenses/:expenseId", h.DeleteExpense)

		cars.POST("/:id/documents", h.AddDocument)
		cars.PATCH("/:id/documents/:documentId", h.UpdateDocument)
		cars.DELETE("/:id/documents/:documentId", h.DeleteDocument)

		cars.POST("/:id/fuel", h.AddFuelRecord)
		cars.PATCH("/:id/fuel/:fuelId", h.UpdateFuelRecord)
		cars.DELETE("/:id/fuel/:fuelId", h.DeleteFuelRecord)
		cars.GET("/:id/fuel/efficiency", h.FuelEfficiency)
		cars.GET("/:id/fuel/trends", h.FuelTrends)

		cars.POST("/:id/reminders", h.AddReminder)
		cars.PATCH("/:id/reminders/:reminderId", h.UpdateReminder)
		cars.DELETE("/:id/reminders/:reminderId", h.DeleteReminder)
		cars.PUT("/:id/reminders/:reminderId/complete", h.CompleteReminder)
	}

	fleet := router.Group("/api/fleet", anyRole)
	{
		fleet.GET("/stats", h.FleetStats)
		fleet.GET("/maintenance/overdue", h.OverdueMaintenance)
		fleet.GET("/maintenance/upcoming", h.UpcomingMaintenance)
		fleet.GET("/documents/expiring", h.ExpiringDocuments)
		fleet.GET("/reminders/active", h.ActiveReminders)
	}
}

// CreateCarRequest carries the caller-supplied car fields.
type CreateCarRequest struct {
	Make              string  `json:"make" binding:"required"`
	Model             string  `json:"model" binding:"required"`
	Year              int     `json:"year" binding:"required"`
	LicensePlate      string  `json:"license_plate"`
	VIN               string  `json:"vin"`
	CurrentMileage    float64 `json:"current_mileage"`
	InsuranceCompany  string  `json:"insurance_company"`
	InsurancePolicyNo string  `json:"insurance_policy_no"`
}

// CreateCar adds a car to the fleet
// @Summary      Create car
// @Tags         cars
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateCarRequest  true  "Car Payload"
// @Success      201      {object}  response.Response{data=model.Car}
// @Failure      400      {object}  response.Response
// @Router       /api/cars [post]
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	car := h.fleet.AddCar(model.Car{
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		LicensePlate:      req.LicensePlate,
		VIN:               req.VIN,
		CurrentMileage:    req.CurrentMileage,
		InsuranceCompany:  req.InsuranceCompany,
		InsurancePolicyNo: req.InsurancePolicyNo,
		IsActive:          true,
	})
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, car))
}

// ListCars returns the fleet, paginated
// @Summary      List cars
// @Tags         cars
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Paginated}
// @Router       /api/cars [get]
func (h *CarHandler) ListCars(c *gin.Context) {
	params := pagination.Parse(c)
	cars := h.fleet.ListCars()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: pagination.Slice(cars, params),
		Total: len(cars),
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetCar returns one car with all nested records
// @Summary      Get car
// @Tags         cars
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Car ID"
// @Success      200  {object}  response.Response{data=model.Car}
// @Failure      404  {object}  response.Response
// @Router       /api/cars/{id} [get]
func (h *CarHandler) GetCar(c *gin.Context) {
	car, ok := h.fleet.GetCar(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, car))
}

// UpdateCar merge-patches a car
// @Summary      Update car
// @Tags         cars
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Car ID"
// @Param        payload  body      model.CarPatch  true  "Patch"
// @Success      200      {object}  response.Response{data=model.Car}
// @Failure      404      {object}  response.Response
// @Router       /api/cars/{id} [patch]
func (h *CarHandler) UpdateCar(c *gin.Context) {
	var patch model.CarPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	car, ok := h.fleet.UpdateCar(c.Param("id"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, car))
}

// DeleteCar removes a car and everything it owns
// @Summary      Delete car
// @Tags         cars
// @Security     BearerAuth
// @Param        id  path  string  true  "Car ID"
// @Success      204
// @Router       /api/cars/{id} [delete]
func (h *CarHandler) DeleteCar(c *gin.Context) {
	h.fleet.DeleteCar(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type updateMileageRequest struct {
	Mileage float64 `json:"mileage" binding:"required"`
}

// UpdateMileage sets the odometer reading
// @Summary      Update mileage
// @Tags         cars
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Car ID"
// @Param        payload  body      updateMileageRequest  true  "Mileage"
// @Success      200      {object}  response.Response{data=model.Car}
// @Failure      404      {object}  response.Response
// @Router       /api/cars/{id}/mileage [put]
func (h *CarHandler) UpdateMileage(c *gin.Context) {
	var req updateMileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	car, ok := h.fleet.UpdateMileage(c.Param("id"), req.Mileage)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, car))
}

// CarStats returns the derived per-car figures
// @Summary      Car statistics
// @Tags         cars
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Car ID"
// @Success      200  {object}  response.Response{data=model.CarStats}
// @Router       /api/cars/{id}/stats [get]
func (h *CarHandler) CarStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.CarStats(c.Param("id"))))
}

// --- Maintenance ---

// AddMaintenance records an intervention on a car
// @Summary      Add maintenance record
// @Tags         maintenance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Car ID"
// @Param        payload  body      model.MaintenanceRecord  true  "Record"
// @Success      201      {object}  response.Response{data=model.MaintenanceRecord}
// @Failure      404      {object}  response.Response
// @Router       /api/cars/{id}/maintenance [post]
func (h *CarHandler) AddMaintenance(c *gin.Context) {
	var rec model.MaintenanceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, ok := h.fleet.AddMaintenance(c.Param("id"), rec)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *CarHandler) UpdateMaintenance(c *gin.Context) {
	var patch model.MaintenancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	rec, ok := h.fleet.UpdateMaintenance(c.Param("id"), c.Param("recordId"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "maintenance record not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

func (h *CarHandler) DeleteMaintenance(c *gin.Context) {
	h.fleet.DeleteMaintenance(c.Param("id"), c.Param("recordId"))
	c.Status(http.StatusNoContent)
}

// --- Expenses ---

func (h *CarHandler) AddExpense(c *gin.Context) {
	var exp model.Expense
	if err := c.ShouldBindJSON(&exp); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, ok := h.fleet.AddExpense(c.Param("id"), exp)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *CarHandler) UpdateExpense(c *gin.Context) {
	var patch model.ExpensePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	exp, ok := h.fleet.UpdateExpense(c.Param("id"), c.Param("expenseId"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "expense not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, exp))
}

func (h *CarHandler) DeleteExpense(c *gin.Context) {
	h.fleet.DeleteExpense(c.Param("id"), c.Param("expenseId"))
	c.Status(http.StatusNoContent)
}

// --- Documents ---

func (h *CarHandler) AddDocument(c *gin.Context) {
	var doc model.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, ok := h.fleet.AddDocument(c.Param("id"), doc)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *CarHandler) UpdateDocument(c *gin.Context) {
	var patch model.DocumentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	doc, ok := h.fleet.UpdateDocument(c.Param("id"), c.Param("documentId"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "document not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

func (h *CarHandler) DeleteDocument(c *gin.Context) {
	h.fleet.DeleteDocument(c.Param("id"), c.Param("documentId"))
	c.Status(http.StatusNoContent)
}

// --- Fuel ---

func (h *CarHandler) AddFuelRecord(c *gin.Context) {
	var rec model.FuelRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, ok := h.fleet.AddFuelRecord(c.Param("id"), rec)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *CarHandler) UpdateFuelRecord(c *gin.Context) {
	var patch model.FuelRecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	rec, ok := h.fleet.UpdateFuelRecord(c.Param("id"), c.Param("fuelId"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fuel record not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

func (h *CarHandler) DeleteFuelRecord(c *gin.Context) {
	h.fleet.DeleteFuelRecord(c.Param("id"), c.Param("fuelId"))
	c.Status(http.StatusNoContent)
}

// FuelEfficiency returns the average consumption in liters/100km
// @Summary      Fuel efficiency
// @Tags         fuel
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Car ID"
// @Success      200  {object}  response.Response
// @Router       /api/cars/{id}/fuel/efficiency [get]
func (h *CarHandler) FuelEfficiency(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"avg_fuel_consumption": h.fleet.FuelEfficiency(c.Param("id")),
	}))
}

// FuelTrends returns per-month fuel cost and consumption buckets
// @Summary      Fuel trends
// @Tags         fuel
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "Car ID"
// @Param        months  query     int     false  "Trailing months (default 12)"
// @Success      200     {object}  response.Response{data=[]model.FuelTrendPoint}
// @Router       /api/cars/{id}/fuel/trends [get]
func (h *CarHandler) FuelTrends(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.FuelTrends(c.Param("id"), months)))
}

// --- Reminders ---

func (h *CarHandler) AddReminder(c *gin.Context) {
	var rem model.Reminder
	if err := c.ShouldBindJSON(&rem); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, ok := h.fleet.AddReminder(c.Param("id"), rem)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "car not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *CarHandler) UpdateReminder(c *gin.Context) {
	var patch model.ReminderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	rem, ok := h.fleet.UpdateReminder(c.Param("id"), c.Param("reminderId"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "reminder not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rem))
}

func (h *CarHandler) DeleteReminder(c *gin.Context) {
	h.fleet.DeleteReminder(c.Param("id"), c.Param("reminderId"))
	c.Status(http.StatusNoContent)
}

// CompleteReminder marks a reminder done (idempotent)
// @Summary      Complete reminder
// @Tags         reminders
// @Security     BearerAuth
// @Produce      json
// @Param        id          path      string  true  "Car ID"
// @Param        reminderId  path      string  true  "Reminder ID"
// @Success      200         {object}  response.Response{data=model.Reminder}
// @Failure      404         {object}  response.Response
// @Router       /api/cars/{id}/reminders/{reminderId}/complete [put]
func (h *CarHandler) CompleteReminder(c *gin.Context) {
	rem, ok := h.fleet.CompleteReminder(c.Param("id"), c.Param("reminderId"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "reminder not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rem))
}

// --- Fleet-wide analytics ---

// FleetStats aggregates over active cars
// @Summary      Fleet statistics
// @Tags         fleet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.FleetStats}
// @Router       /api/fleet/stats [get]
func (h *CarHandler) FleetStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.FleetStats()))
}

// OverdueMaintenance lists records past either due threshold
// @Summary      Overdue maintenance
// @Tags         fleet
// @Security     BearerAuth
// @Produce      json
// @Param        car_id  query     string  false  "Restrict to one car"
// @Success      200     {object}  response.Response{data=[]ledger.MaintenanceDue}
// @Router       /api/fleet/maintenance/overdue [get]
func (h *CarHandler) OverdueMaintenance(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.OverdueMaintenance(c.Query("car_id"))))
}

// UpcomingMaintenance lists date-based records due inside the window
// @Summary      Upcoming maintenance
// @Tags         fleet
// @Security     BearerAuth
// @Produce      json
// @Param        car_id  query     string  false  "Restrict to one car"
// @Param        days    query     int     false  "Days ahead (default 30)"
// @Success      200     {object}  response.Response{data=[]ledger.MaintenanceDue}
// @Router       /api/fleet/maintenance/upcoming [get]
func (h *CarHandler) UpcomingMaintenance(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.UpcomingMaintenance(c.Query("car_id"), days)))
}

// ExpiringDocuments lists documents expiring inside the window
// @Summary      Expiring documents
// @Tags         fleet
// @Security     BearerAuth
// @Produce      json
// @Param        car_id  query     string  false  "Restrict to one car"
// @Param        days    query     int     false  "Days ahead (default 30)"
// @Success      200     {object}  response.Response{data=[]ledger.DocumentExpiry}
// @Router       /api/fleet/documents/expiring [get]
func (h *CarHandler) ExpiringDocuments(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.ExpiringDocuments(c.Query("car_id"), days)))
}

// ActiveReminders lists reminders with the active flag set
// @Summary      Active reminders
// @Tags         fleet
// @Security     BearerAuth
// @Produce      json
// @Param        car_id  query     string  false  "Restrict to one car"
// @Success      200     {object}  response.Response{data=[]ledger.ReminderEntry}
// @Router       /api/fleet/reminders/active [get]
func (h *CarHandler) ActiveReminders(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.fleet.ActiveReminders(c.Query("car_id"))))
}
