package handler

import (
	"net/http"
	"time"

	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoicing *ledger.InvoiceLedger
}

func NewInvoiceHandler(invoicing *ledger.InvoiceLedger) *InvoiceHandler {
	return &InvoiceHandler{invoicing: invoicing}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleOwner, model.RoleMechanic)
	ownerOnly := middleware.RequireRole(model.RoleOwner)

	invoices := router.Group("/api/invoices")
	{
		invoices.POST("", ownerOnly, h.CreateInvoice)
		invoices.GET("", anyRole, h.ListInvoices)
		invoices.GET("/:id", anyRole, h.GetInvoice)
		invoices.PATCH("/:id", ownerOnly, h.UpdateInvoice)
		invoices.DELETE("/:id", ownerOnly, h.DeleteInvoice)
		invoices.PUT("/:id/status", ownerOnly, h.UpdateInvoiceStatus)
	}

	templates := router.Group("/api/templates")
	{
		templates.POST("", ownerOnly, h.CreateTemplate)
		templates.GET("", anyRole, h.ListTemplates)
		templates.GET("/:id", anyRole, h.GetTemplate)
		templates.PATCH("/:id", ownerOnly, h.UpdateTemplate)
		templates.DELETE("/:id", ownerOnly, h.DeleteTemplate)
		templates.POST("/:id/invoices", ownerOnly, h.CreateInvoiceFromTemplate)
	}

	stats := router.Group("/api/statistics")
	{
		stats.GET("/invoices", anyRole, h.InvoiceStats)
	}

	// Invoices issued for a specific workshop job live under the car path.
	router.GET("/api/cars/:id/repairs/:repairId/invoices", anyRole, h.InvoicesByRepair)
}

// CreateInvoiceRequest carries the caller-supplied invoice fields. Totals are
// never accepted; they are recomputed from the items.
type CreateInvoiceRequest struct {
	Type       model.InvoiceType   `json:"type"`
	CustomerID string              `json:"customer_id"`
	CarID      string              `json:"car_id"`
	RepairID   string              `json:"repair_id"`
	IssueDate  *time.Time          `json:"issue_date"`
	DueDate    *time.Time          `json:"due_date"`
	Items      []model.InvoiceItem `json:"items"`
	Notes      string              `json:"notes"`
}

// CreateInvoice creates an invoice with a freshly minted sequential number
// @Summary      Create invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateInvoiceRequest  true  "Invoice Payload"
// @Success      201      {object}  response.Response{data=model.Invoice}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	inv := model.Invoice{
		Type:       req.Type,
		CustomerID: req.CustomerID,
		CarID:      req.CarID,
		RepairID:   req.RepairID,
		Items:      req.Items,
		Notes:      req.Notes,
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}

	created, err := h.invoicing.AddInvoice(inv)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListInvoices returns invoices, optionally filtered by customer, paginated
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query     string  false  "Filter by customer"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Paginated}
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)

	var invoices []model.Invoice
	if customerID := c.Query("customer_id"); customerID != "" {
		invoices = h.invoicing.InvoicesByCustomer(customerID)
	} else {
		invoices = h.invoicing.ListInvoices()
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: pagination.Slice(invoices, params),
		Total: len(invoices),
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	inv, ok := h.invoicing.GetInvoice(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "invoice not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// UpdateInvoice merge-patches an invoice; new items trigger a totals recompute
// @Summary      Update invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Invoice ID"
// @Param        payload  body      model.InvoicePatch  true  "Patch"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id} [patch]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var patch model.InvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	inv, ok, err := h.invoicing.UpdateInvoice(c.Param("id"), patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "invoice not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// DeleteInvoice removes an invoice
// @Summary      Delete invoice
// @Tags         invoices
// @Security     BearerAuth
// @Param        id  path  string  true  "Invoice ID"
// @Success      204
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	h.invoicing.DeleteInvoice(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type updateStatusRequest struct {
	Status   model.InvoiceStatus `json:"status" binding:"required,oneof=draft sent paid overdue cancelled"`
	PaidDate *time.Time          `json:"paid_date"`
}

// UpdateInvoiceStatus sets the stored status; paid stamps the payment date
// @Summary      Update invoice status
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Invoice ID"
// @Param        payload  body      updateStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	inv, ok := h.invoicing.UpdateInvoiceStatus(c.Param("id"), req.Status, req.PaidDate)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "invoice not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// InvoicesByRepair lists the invoices issued for one workshop job
// @Summary      Invoices by repair
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id        path      string  true  "Car ID"
// @Param        repairId  path      string  true  "Repair ID"
// @Success      200       {object}  response.Response{data=[]model.Invoice}
// @Router       /api/cars/{id}/repairs/{repairId}/invoices [get]
func (h *InvoiceHandler) InvoicesByRepair(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK,
		h.invoicing.InvoicesByRepair(c.Param("id"), c.Param("repairId"))))
}

// InvoiceStats returns the revenue summary
// @Summary      Invoice statistics
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.InvoiceStats}
// @Router       /api/statistics/invoices [get]
func (h *InvoiceHandler) InvoiceStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoicing.Stats()))
}

// --- Templates ---

// CreateTemplate stores a reusable list of item prototypes
// @Summary      Create invoice template
// @Tags         templates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      model.InvoiceTemplate  true  "Template"
// @Success      201      {object}  response.Response{data=model.InvoiceTemplate}
// @Router       /api/templates [post]
func (h *InvoiceHandler) CreateTemplate(c *gin.Context) {
	var tpl model.InvoiceTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, h.invoicing.AddTemplate(tpl)))
}

func (h *InvoiceHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoicing.ListTemplates()))
}

func (h *InvoiceHandler) GetTemplate(c *gin.Context) {
	tpl, ok := h.invoicing.GetTemplate(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "template not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

func (h *InvoiceHandler) UpdateTemplate(c *gin.Context) {
	var patch model.TemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	tpl, ok := h.invoicing.UpdateTemplate(c.Param("id"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "template not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

func (h *InvoiceHandler) DeleteTemplate(c *gin.Context) {
	h.invoicing.DeleteTemplate(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// CreateInvoiceFromTemplate seeds a new invoice's lines from a template
// @Summary      Create invoice from template
// @Tags         templates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Template ID"
// @Param        payload  body      CreateInvoiceRequest  true  "Invoice Payload (items ignored)"
// @Success      201      {object}  response.Response{data=model.Invoice}
// @Failure      400      {object}  response.Response
// @Router       /api/templates/{id}/invoices [post]
func (h *InvoiceHandler) CreateInvoiceFromTemplate(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	inv := model.Invoice{
		Type:       req.Type,
		CustomerID: req.CustomerID,
		CarID:      req.CarID,
		RepairID:   req.RepairID,
		Notes:      req.Notes,
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}

	created, err := h.invoicing.InvoiceFromTemplate(c.Param("id"), inv)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}
