package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func TestValidateFilters(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		wantStatus int
		wantField  string
	}{
		{name: "no filters", query: url.Values{}, wantStatus: http.StatusOK},
		{name: "valid cascade", query: url.Values{"district": {"Gasabo"}, "sector": {"Kimironko"}, "site": {"Gasabo-Wetland"}}, wantStatus: http.StatusOK},
		{name: "punctuated company", query: url.Values{"company": {"CRBC/NET"}}, wantStatus: http.StatusOK},
		{name: "unknown parameter ignored", query: url.Values{"utm": {"x"}}, wantStatus: http.StatusOK},
		{name: "value too long", query: url.Values{"district": {strings.Repeat("a", 129)}}, wantStatus: http.StatusBadRequest, wantField: "district"},
		{name: "control character", query: url.Values{"site": {"bad\x00site"}}, wantStatus: http.StatusBadRequest, wantField: "site"},
		{name: "repeated parameter", query: url.Values{"gender": {"Male", "Female"}}, wantStatus: http.StatusBadRequest, wantField: "gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			vm := NewValidationMiddleware(logger, newErrorHandler(t))
			h := vm.ValidateFilters(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodGet, "/paps?"+tt.query.Encode(), nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantField == "" {
				return
			}

			var body struct {
				Details []struct {
					Field   string `json:"field"`
					Message string `json:"message"`
				} `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Details, 1)
			assert.Equal(t, tt.wantField, body.Details[0].Field)
			assert.NotEmpty(t, body.Details[0].Message)
		})
	}
}
