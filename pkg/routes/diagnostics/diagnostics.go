package diagnostics

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/diagnostics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/utils"
)

type Diagnoser interface {
	Diagnose(ctx context.Context, req diagnostics.Request) (*diagnostics.Response, error)
}

// Register registers the diagnostics routes
func Register(g *echo.Group) {
	g.POST("", diagnose)
}

// diagnose handles POST /diagnostics
func diagnose(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "DiagnosticsHandler.Diagnose")
	defer span.End()

	req, err := utils.BindRequest[diagnostics.Request](c)
	if err != nil {
		return err
	}

	ctx, diagnoser, err := ectoinject.GetContext[Diagnoser](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	resp, err := diagnoser.Diagnose(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
