package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/academe-hq/academe/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.Validation("name is required"), http.StatusBadRequest},
		{shared.InvalidID("bad id"), http.StatusBadRequest},
		{shared.Unauthorized("authentication required"), http.StatusUnauthorized},
		{shared.PermissionDenied(), http.StatusForbidden},
		{shared.NotFound("school not found"), http.StatusNotFound},
		{shared.Duplicate("email already in use"), http.StatusConflict},
		{shared.CapacityFull("classroom is at capacity (30)"), http.StatusUnprocessableEntity},
		{errors.New("pg connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, "error: %v", tc.err)

		var env Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.False(t, env.OK)
		require.NotEmpty(t, env.Code)
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "internal error", env.Message)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
}
