package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	Healthz(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestReadyz_NilChecker_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	Readyz(nil)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz_CheckerFails_ReturnsServiceUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	check := func() error { return errors.New("driver unreachable") }
	Readyz(check)(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var problem Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
	assert.Equal(t, "driver unreachable", problem.Detail)
}

func TestReadyz_CheckerSucceeds_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	check := func() error { return nil }
	Readyz(check)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
