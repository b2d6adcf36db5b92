package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codesRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

func TestValidate(t *testing.T) {
	_, err := Validate(codesRequest{Codes: []string{"A8"}})
	assert.NoError(t, err)

	_, err = Validate(codesRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codes fails rule 'required'")
}

func TestValidate_EffectivityCode(t *testing.T) {
	type configuration struct {
		Code string `yaml:"code" validate:"required,effcode"`
	}

	_, err := Validate(configuration{Code: "PLUS"})
	assert.NoError(t, err)

	_, err = Validate(configuration{Code: "SHORT NOSE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code fails rule 'effcode'")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("SN", "required,max=8"))
	assert.Error(t, ValidateValue("", "required"))
}

func TestBindRequest(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name       string
		body       string
		wantErr    bool
		wantStatus int
	}{
		{name: "valid", body: `{"codes":["A8","*SN"]}`},
		{name: "missing codes", body: `{}`, wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"codes":`, wantErr: true, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			got, err := BindRequest[codesRequest](c)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, []string{"A8", "*SN"}, got.Codes)
				return
			}
			require.Error(t, err)
			assert.True(t, httperror.IsHTTPError(err))
			assert.Equal(t, tt.wantStatus, httperror.GetStatusCode(err))
		})
	}
}
