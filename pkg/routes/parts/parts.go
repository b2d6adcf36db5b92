package parts

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/utils"
)

type ConfigurationResolver interface {
	ResolveConfiguration(ctx context.Context, serialNumber string) models.ConfigurationResolution
}

type PartsResolver interface {
	GetApplicableParts(ctx context.Context, partNumbers []string, configurationCode string) models.PartApplicability
}

// Register registers the parts routes
func Register(g *echo.Group) {
	g.POST("/applicability", getApplicability)
}

// ApplicabilityRequest names the aircraft either by configuration code or by serial number.
type ApplicabilityRequest struct {
	PartNumbers       []string `json:"part_numbers" validate:"required,min=1"`
	ConfigurationCode string   `json:"configuration_code"`
	SerialNumber      string   `json:"serial_number"`
}

// ApplicabilityResponse adds the configuration resolution when the request named a serial.
type ApplicabilityResponse struct {
	models.PartApplicability
	Configuration *models.ConfigurationResolution `json:"configuration,omitempty"`
}

// getApplicability handles POST /parts/applicability
func getApplicability(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PartsHandler.GetApplicability")
	defer span.End()

	req, err := utils.BindRequest[ApplicabilityRequest](c)
	if err != nil {
		return err
	}

	configurationCode := strings.TrimSpace(req.ConfigurationCode)
	serialNumber := strings.TrimSpace(req.SerialNumber)
	if configurationCode == "" && serialNumber == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "configuration_code or serial_number is required")
	}

	ctx, parts, err := ectoinject.GetContext[PartsResolver](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	var resp ApplicabilityResponse
	if configurationCode == "" {
		var configurations ConfigurationResolver
		ctx, configurations, err = ectoinject.GetContext[ConfigurationResolver](ctx)
		if err != nil {
			return httperror.WrapError(http.StatusInternalServerError, err)
		}
		resolution := configurations.ResolveConfiguration(ctx, serialNumber)
		resp.Configuration = &resolution
		configurationCode = resolution.ConfigurationCode
	}

	resp.PartApplicability = parts.GetApplicableParts(ctx, req.PartNumbers, configurationCode)
	if resp.Configuration != nil && !resp.Configuration.Resolved {
		// the serial warning explains the unknowns better than the generic one
		resp.Warning = resp.Configuration.Warning
	}

	return c.JSON(http.StatusOK, resp)
}
