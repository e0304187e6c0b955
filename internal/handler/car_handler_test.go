package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router    *gin.Engine
	fleet     *ledger.VehicleLedger
	invoicing *ledger.InvoiceLedger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	fleet, err := ledger.NewVehicleLedger(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(fleet.Close)

	invoicing, err := ledger.NewInvoiceLedger(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(invoicing.Close)

	router := gin.New()
	NewCarHandler(fleet).RegisterRoutes(router.Group(""))
	NewInvoiceHandler(invoicing).RegisterRoutes(router.Group(""))
	NewCustomerHandler(invoicing).RegisterRoutes(router.Group(""))

	return &testAPI{router: router, fleet: fleet, invoicing: invoicing}
}

func (a *testAPI) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := middleware.IssueToken("user-1", "Test User", role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var env response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateCarEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/cars", model.RoleOwner, gin.H{
		"make": "Fiat", "model": "Panda", "year": 2019,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "success", env.Status)

	car, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, car["id"])
	assert.Equal(t, "Panda", car["model"])
	assert.Equal(t, true, car["is_active"])
}

func TestCreateCarValidation(t *testing.T) {
	api := newTestAPI(t)

	// Missing required fields.
	rec := api.do(t, http.MethodPost, "/api/cars", model.RoleOwner, gin.H{"make": "Fiat"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "error", env.Status)
	assert.NotEmpty(t, env.Error)
}

func TestCarEndpointsRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/cars", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListCarsPagination(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 3; i++ {
		api.fleet.AddCar(model.Car{Make: "Fiat", Model: "Panda", IsActive: true})
	}

	rec := api.do(t, http.MethodGet, "/api/cars?page=1&limit=2", model.RoleMechanic, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data response.Paginated `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Data.Total)
	assert.Equal(t, 2, env.Data.Limit)
	items, ok := env.Data.Items.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestGetCarNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/cars/nope", model.RoleOwner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMileageEndpoint(t *testing.T) {
	api := newTestAPI(t)
	car := api.fleet.AddCar(model.Car{Make: "Fiat", Model: "Panda", IsActive: true})

	rec := api.do(t, http.MethodPut, "/api/cars/"+car.ID+"/mileage", model.RoleMechanic, gin.H{"mileage": 42000})
	require.Equal(t, http.StatusOK, rec.Code)

	got, ok := api.fleet.GetCar(car.ID)
	require.True(t, ok)
	assert.Equal(t, 42000.0, got.CurrentMileage)
}

func TestInvoiceCreationIsOwnerOnly(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/invoices", model.RoleMechanic, gin.H{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/invoices", model.RoleOwner, gin.H{})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteCustomerConflict(t *testing.T) {
	api := newTestAPI(t)
	customer := api.invoicing.AddCustomer(model.Customer{Name: "Mario"})
	inv, err := api.invoicing.AddInvoice(model.Invoice{CustomerID: customer.ID})
	require.NoError(t, err)
	api.invoicing.UpdateInvoiceStatus(inv.ID, model.StatusSent, nil)

	rec := api.do(t, http.MethodDelete, "/api/customers/"+customer.ID, model.RoleOwner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	api.invoicing.UpdateInvoiceStatus(inv.ID, model.StatusPaid, nil)
	rec = api.do(t, http.MethodDelete, "/api/customers/"+customer.ID, model.RoleOwner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFleetStatsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.fleet.AddCar(model.Car{Make: "Fiat", Model: "Panda", IsActive: true})

	rec := api.do(t, http.MethodGet, "/api/fleet/stats", model.RoleOwner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data model.FleetStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Data.ActiveCars)
}
