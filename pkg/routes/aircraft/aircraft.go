package aircraft

import (
	"context"
	"net/http"

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

type CodeResolver interface {
	ResolveEffectivityCodes(ctx context.Context, serialNumber string, tokens []string) models.CodeApplicability
	ListCodesForSerial(ctx context.Context, serialNumber string) models.CodesForSerial
}

// Register registers the aircraft routes
func Register(g *echo.Group) {
	g.GET("/:serial/configuration", getConfiguration)
	g.GET("/:serial/effectivity-codes", listEffectivityCodes)
	g.POST("/:serial/effectivity-codes/applicability", resolveEffectivityCodes)
}

// CodeApplicabilityRequest is the request body for classifying effectivity tokens
type CodeApplicabilityRequest struct {
	Codes []string `json:"codes" validate:"required,min=1"`
}

// getConfiguration handles GET /aircraft/:serial/configuration. Unresolved serials are
// still a 200; the body carries the warning.
func getConfiguration(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AircraftHandler.GetConfiguration")
	defer span.End()

	ctx, resolver, err := ectoinject.GetContext[ConfigurationResolver](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	result := resolver.ResolveConfiguration(ctx, c.Param("serial"))
	return c.JSON(http.StatusOK, result)
}

// listEffectivityCodes handles GET /aircraft/:serial/effectivity-codes
func listEffectivityCodes(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AircraftHandler.ListEffectivityCodes")
	defer span.End()

	ctx, codes, err := ectoinject.GetContext[CodeResolver](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	result := codes.ListCodesForSerial(ctx, c.Param("serial"))
	return c.JSON(http.StatusOK, result)
}

// resolveEffectivityCodes handles POST /aircraft/:serial/effectivity-codes/applicability
func resolveEffectivityCodes(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AircraftHandler.ResolveEffectivityCodes")
	defer span.End()

	req, err := utils.BindRequest[CodeApplicabilityRequest](c)
	if err != nil {
		return err
	}

	ctx, codes, err := ectoinject.GetContext[CodeResolver](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	result := codes.ResolveEffectivityCodes(ctx, c.Param("serial"), req.Codes)
	return c.JSON(http.StatusOK, result)
}
