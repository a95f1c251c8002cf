package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "1").
		Data(map[string]int{"n": 1}).
		NotifySuccess("Saved").
		Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Custom"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"n":1},"notification":{"type":"success","message":"Saved","duration":3000}}`, rec.Body.String())
}

func TestErrorBuilders(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("nope"), http.StatusBadRequest, `{"error":"nope"}`},
		{"unprocessable", UnprocessableEntityError("empty title"), http.StatusUnprocessableEntity, `{"error":"empty title"}`},
		{"unauthorized", UnauthorizedError("no active session"), http.StatusUnauthorized, `{"error":"no active session","redirect":"/login"}`},
		{
			"internal", InternalServerError("Could not save"), http.StatusInternalServerError,
			`{"error":"Could not save","notification":{"type":"error","message":"Could not save","duration":5000}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.builder.Write(rec)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	srv.writeError(rec, req, assert.AnError, "create", "Could not save the expense. Please try again.")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Error, assert.AnError.Error())
	require.NotNil(t, resp.Notification)
	assert.Equal(t, NotificationError, resp.Notification.Type)
}
