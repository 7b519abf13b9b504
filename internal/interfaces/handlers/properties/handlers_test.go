package properties

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"vivenda-backend/internal/application/allocation"
	propsvc "vivenda-backend/internal/application/properties"
	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupApp(t *testing.T, role string) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Property{}, &domain.QuotaLedger{},
		&domain.QuotaUnit{}, &domain.Reservation{}, &domain.LedgerEvent{},
	))

	h := &Handlers{
		Service:    &propsvc.Service{DB: db},
		Allocation: allocation.NewService(db),
	}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id": uuid.NewString(), "fullname": "Admin", "email": "a@test.com", "role": role,
		})
		return c.Next()
	})
	app.Post("/create-property", h.CreateProperty)
	app.Get("/get-all-properties", h.GetAllProperties)
	app.Get("/get-property/:property_id", h.GetProperty)
	app.Get("/get-ledger/:property_id", h.GetLedger)
	app.Get("/get-ledger-events/:property_id", h.GetLedgerEvents)
	app.Delete("/delete-property/:property_id", h.DeleteProperty)
	app.Post("/block-quotas", h.BlockQuotas)
	app.Post("/unblock-quotas", h.UnblockQuotas)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*map[string]interface{}, int) {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(body, &out)
	return &out, resp.StatusCode
}

func createProperty(t *testing.T, app *fiber.App, totalQuotas int) string {
	out, code := postJSON(t, app, "/create-property", map[string]interface{}{
		"name":               "Edifício Aurora",
		"location_city":      "Lisboa",
		"location_country":   "PT",
		"annual_roi_percent": 9.5,
		"total_quotas":       totalQuotas,
		"quota_value":        500.0,
	})
	require.Equal(t, fiber.StatusCreated, code)
	data := (*out)["data"].(map[string]interface{})
	prop := data["property"].(map[string]interface{})
	return prop["property_id"].(string)
}

func TestCreateProperty_ValidationErrors(t *testing.T) {
	app, _ := setupApp(t, constants.Admin)

	_, code := postJSON(t, app, "/create-property", map[string]interface{}{
		"location_city": "Lisboa", "location_country": "PT",
		"total_quotas": 10, "quota_value": 500.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, code)

	_, code = postJSON(t, app, "/create-property", map[string]interface{}{
		"name": "X", "location_city": "Lisboa", "location_country": "PT",
		"total_quotas": 0, "quota_value": 500.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, code)

	_, code = postJSON(t, app, "/create-property", map[string]interface{}{
		"name": "X", "location_city": "Lisboa", "location_country": "PT",
		"total_quotas": 10, "quota_value": -1.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestCreateAndGetProperty(t *testing.T) {
	app, db := setupApp(t, constants.Admin)
	id := createProperty(t, app, 25)

	// Ledger and units created alongside the property
	var ledger domain.QuotaLedger
	require.NoError(t, db.Where("property_id = ?", id).First(&ledger).Error)
	assert.Equal(t, 25, ledger.TotalQuotas)
	var unitCount int64
	require.NoError(t, db.Model(&domain.QuotaUnit{}).Where("property_id = ?", id).Count(&unitCount).Error)
	assert.EqualValues(t, 25, unitCount)

	// Detail view includes counts and a projection
	resp, err := app.Test(httptest.NewRequest("GET", "/get-property/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	data := out["data"].(map[string]interface{})
	prop := data["property"].(map[string]interface{})
	ledgerOut := prop["ledger"].(map[string]interface{})
	assert.EqualValues(t, 25, ledgerOut["available_quotas"])
	projection := data["projection"].(map[string]interface{})
	assert.Greater(t, projection["final_value"].(float64), 500.0)

	// List view
	resp2, err := app.Test(httptest.NewRequest("GET", "/get-all-properties", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp2.StatusCode)
}

func TestGetProperty_NotFound(t *testing.T) {
	app, _ := setupApp(t, constants.Admin)
	resp, err := app.Test(httptest.NewRequest("GET", "/get-property/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp2, err := app.Test(httptest.NewRequest("GET", "/get-property/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp2.StatusCode)
}

func TestBlockAndUnblockQuotas(t *testing.T) {
	app, db := setupApp(t, constants.Admin)
	id := createProperty(t, app, 10)

	out, code := postJSON(t, app, "/block-quotas", map[string]interface{}{"property_id": id, "quantity": 4})
	require.Equal(t, fiber.StatusOK, code)
	ledger := (*out)["data"].(map[string]interface{})["ledger"].(map[string]interface{})
	assert.EqualValues(t, 4, ledger["blocked_quotas"])
	assert.EqualValues(t, 6, ledger["available_quotas"])

	// Blocking beyond availability is refused
	_, code = postJSON(t, app, "/block-quotas", map[string]interface{}{"property_id": id, "quantity": 7})
	assert.Equal(t, fiber.StatusBadRequest, code)

	out, code = postJSON(t, app, "/unblock-quotas", map[string]interface{}{"property_id": id, "quantity": 4})
	require.Equal(t, fiber.StatusOK, code)
	ledger = (*out)["data"].(map[string]interface{})["ledger"].(map[string]interface{})
	assert.EqualValues(t, 0, ledger["blocked_quotas"])

	var stored domain.QuotaLedger
	require.NoError(t, db.Where("property_id = ?", id).First(&stored).Error)
	assert.Equal(t, 0, stored.BlockedQuotas)
}

func TestDeleteProperty(t *testing.T) {
	app, db := setupApp(t, constants.Admin)
	id := createProperty(t, app, 5)

	// Refused while quotas are sold
	require.NoError(t, db.Model(&domain.QuotaLedger{}).
		Where("property_id = ?", id).
		Update("sold_quotas", 2).Error)
	req := httptest.NewRequest("DELETE", "/delete-property/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Allowed once nothing is sold
	require.NoError(t, db.Model(&domain.QuotaLedger{}).
		Where("property_id = ?", id).
		Update("sold_quotas", 0).Error)
	resp2, err := app.Test(httptest.NewRequest("DELETE", "/delete-property/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp2.StatusCode)

	var count int64
	require.NoError(t, db.Model(&domain.QuotaUnit{}).Where("property_id = ?", id).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGetLedgerEvents(t *testing.T) {
	app, _ := setupApp(t, constants.Admin)
	id := createProperty(t, app, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/get-ledger-events/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	events := out["data"].(map[string]interface{})["events"].([]interface{})
	require.Len(t, events, 1)
	first := events[0].(map[string]interface{})
	assert.Equal(t, domain.EventLedgerCreated, first["event_type"])
}
