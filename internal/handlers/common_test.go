package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"travel-partner-backend/internal/middleware"
	"travel-partner-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.Error{Kind: services.ErrValidation, Message: "bad"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrCapacity, Message: "Trip is full"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrNotFound, Message: "Post not found"}, http.StatusNotFound},
		{&services.Error{Kind: services.ErrForbidden, Message: "no"}, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", &services.Error{Kind: services.ErrNotFound}), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondServiceError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, errors.New("pq: connection refused"), "Failed to fetch travel posts")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch travel posts"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var req RespondRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"reject","userId":"owner"}`))
	require.NoError(t, decodeJSON(r, &req))
	assert.Equal(t, "reject", req.Action)

	req = RespondRequest{}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"ignore"}`))
	err := decodeJSON(r, &req)
	require.Error(t, err)
	assert.Equal(t, "fallback", requestError(err, "fallback"))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2`))
	err = decodeJSON(r, &CreatePostRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid request body", requestError(err, "fallback"))
}

func TestActingUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "claimed", actingUser(r, "claimed"))

	r = r.WithContext(middleware.WithUserID(r.Context(), "user_token"))
	assert.Equal(t, "user_token", actingUser(r, "claimed"))
}
