package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func testWriter(dev bool) (*ErrorWriter, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewErrorWriter(l, dev), &buf
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]any{"tour": map[string]string{"name": "The Sea Explorer"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotContains(t, body, "results")
	assert.NotContains(t, body, "message")
}

func TestWriteList_IncludesZeroResults(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteList(rec, 0, map[string]any{"data": []string{}})

	body := decodeEnvelope(t, rec)
	assert.Equal(t, float64(0), body["results"])
}

func TestErrorWriter_OperationalError(t *testing.T) {
	ew, logs := testWriter(false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/1", nil)

	ew.Write(rec, req, apperrors.Forbidden("You cannot access this booking"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "You cannot access this booking", body["message"])
	assert.NotContains(t, body, "error")
	assert.Zero(t, logs.Len())
}

func TestErrorWriter_UnexpectedError_Production(t *testing.T) {
	ew, logs := testWriter(false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)

	ew.Write(rec, req, fmt.Errorf("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Something went very wrong!", body["message"])
	assert.Contains(t, logs.String(), "connection refused")
}

func TestErrorWriter_UnexpectedError_Development(t *testing.T) {
	ew, _ := testWriter(true)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)

	ew.Write(rec, req, errors.New("nil pointer somewhere"))

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "nil pointer somewhere", body["message"])
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", detail["code"])
}

func TestErrorWriter_ValidationError(t *testing.T) {
	ew, _ := testWriter(true)
	var v validator.Violations
	v.Add("name", "A tour must have a name")

	rec := httptest.NewRecorder()
	ew.Write(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tours", nil), v.Err())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Invalid input data. A tour must have a name", body["message"])
	detail := body["error"].(map[string]any)
	assert.Equal(t, "A tour must have a name", detail["fields"].(map[string]any)["name"])
}

func TestErrorWriter_WrappedSentinel(t *testing.T) {
	ew, _ := testWriter(false)
	rec := httptest.NewRecorder()
	ew.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.Wrap(apperrors.ErrNotFound, "get tour"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fail", decodeEnvelope(t, rec)["status"])
}

func TestErrorWriter_JSONSyntaxError(t *testing.T) {
	ew, _ := testWriter(false)
	var dst map[string]any
	err := json.Unmarshal([]byte("{bad"), &dst)

	rec := httptest.NewRecorder()
	ew.Write(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseUUID(t *testing.T) {
	id, err := ParseUUID("5C8A1D5B-0190-4F3D-9C1F-000000000001", "tour")
	require.NoError(t, err)
	assert.Equal(t, "5c8a1d5b-0190-4f3d-9c1f-000000000001", id)

	_, err = ParseUUID("5c88fa8cf4afda39709c2955", "tour")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}
