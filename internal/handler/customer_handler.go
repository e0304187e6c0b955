package handler

import (
	"errors"
	"net/http"

	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	invoicing *ledger.InvoiceLedger
}

func NewCustomerHandler(invoicing *ledger.InvoiceLedger) *CustomerHandler {
	return &CustomerHandler{invoicing: invoicing}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleOwner, model.RoleMechanic)
	ownerOnly := middleware.RequireRole(model.RoleOwner)

	customers := router.Group("/api/customers")
	{
		customers.POST("", ownerOnly, h.CreateCustomer)
		customers.GET("", anyRole, h.ListCustomers)
		customers.GET("/:id", anyRole, h.GetCustomer)
		customers.PATCH("/:id", ownerOnly, h.UpdateCustomer)
		customers.DELETE("/:id", ownerOnly, h.DeleteCustomer)
		customers.GET("/:id/invoices", anyRole, h.CustomerInvoices)
	}
}

// CreateCustomerRequest carries the caller-supplied customer fields.
type CreateCustomerRequest struct {
	Name       string `json:"name" binding:"required"`
	IsCompany  bool   `json:"is_company"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	VATNumber  string `json:"vat_number"`
	FiscalCode string `json:"fiscal_code"`
	Notes      string `json:"notes"`
}

// CreateCustomer adds a workshop client
// @Summary      Create customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateCustomerRequest  true  "Customer Payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer := h.invoicing.AddCustomer(model.Customer{
		Name:       req.Name,
		IsCompany:  req.IsCompany,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		VATNumber:  req.VATNumber,
		FiscalCode: req.FiscalCode,
		Notes:      req.Notes,
	})
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// ListCustomers returns all customers, paginated
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Paginated}
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)
	customers := h.invoicing.ListCustomers()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: pagination.Slice(customers, params),
		Total: len(customers),
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetCustomer returns one customer
// @Summary      Get customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, ok := h.invoicing.GetCustomer(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "customer not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// UpdateCustomer merge-patches a customer; issued invoices keep their snapshot
// @Summary      Update customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Customer ID"
// @Param        payload  body      model.CustomerPatch  true  "Patch"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      404      {object}  response.Response
// @Router       /api/customers/{id} [patch]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var patch model.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	customer, ok := h.invoicing.UpdateCustomer(c.Param("id"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "customer not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// DeleteCustomer removes a customer without outstanding invoices
// @Summary      Delete customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Customer ID"
// @Success      204
// @Failure      409  {object}  response.Response
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.invoicing.DeleteCustomer(c.Param("id")); err != nil {
		if errors.Is(err, ledger.ErrCustomerHasInvoices) {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// CustomerInvoices lists the invoices issued to one customer
// @Summary      Customer invoices
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=[]model.Invoice}
// @Router       /api/customers/{id}/invoices [get]
func (h *CustomerHandler) CustomerInvoices(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoicing.InvoicesByCustomer(c.Param("id"))))
}
