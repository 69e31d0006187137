package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrCharacterNotFound, http.StatusNotFound, CodeCharacterNotFound},
		{fmt.Errorf("get character 7: %w", model.ErrCharacterNotFound), http.StatusNotFound, CodeCharacterNotFound},
		{model.ErrIdentityNotFound, http.StatusNotFound, CodeIdentityNotFound},
		{model.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{model.ErrMultipleMasters, http.StatusServiceUnavailable, CodeMasterNotConfigured},
		{auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{auth.ErrMasterLoginRequired, http.StatusUnauthorized, CodePasswordRequired},
		{NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("pq: password authentication failed for user admin"))

	assert.NotContains(t, rr.Body.String(), "admin")
}
