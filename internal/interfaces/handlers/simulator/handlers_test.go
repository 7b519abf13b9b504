package simulator

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp() *fiber.App {
	h := &Handlers{}
	app := fiber.New()
	app.Post("/project", h.Project)
	return app
}

func TestProject_Success(t *testing.T) {
	app := setupApp()
	body, _ := json.Marshal(map[string]interface{}{
		"initial_amount":     50000,
		"period_months":      12,
		"annual_roi_percent": 12,
	})
	req := httptest.NewRequest("POST", "/project", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	projection := out["data"].(map[string]interface{})["projection"].(map[string]interface{})
	assert.InDelta(t, 56341.25, projection["final_value"].(float64), 0.5)
	assert.Equal(t, true, projection["payback_achievable"])
}

func TestProject_NonPositivePeriod(t *testing.T) {
	app := setupApp()
	body, _ := json.Marshal(map[string]interface{}{
		"initial_amount":     1000,
		"period_months":      0,
		"annual_roi_percent": 10,
	})
	req := httptest.NewRequest("POST", "/project", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProject_ZeroROIHasNoPayback(t *testing.T) {
	app := setupApp()
	body, _ := json.Marshal(map[string]interface{}{
		"initial_amount":     1000,
		"period_months":      24,
		"annual_roi_percent": 0,
	})
	req := httptest.NewRequest("POST", "/project", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	projection := out["data"].(map[string]interface{})["projection"].(map[string]interface{})
	assert.Equal(t, false, projection["payback_achievable"])
}
