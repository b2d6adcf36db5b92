package curated

import (
	"context"
	"io"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

// maxDatasetSize caps the YAML body read by the import route (4MB).
const maxDatasetSize = 4 * 1024 * 1024

type Importer interface {
	ImportYAML(ctx context.Context, body []byte) (*models.CuratedImportResult, error)
}

type ConfigurationLister interface {
	ListConfigurations(ctx context.Context) ([]models.AircraftConfiguration, error)
}

// Register registers the curated data routes
func Register(g *echo.Group) {
	g.POST("/import", importDataset)
	g.GET("/configurations", listConfigurations)
}

// importDataset handles POST /curated/import with a YAML body
func importDataset(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CuratedHandler.Import")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDatasetSize+1))
	if err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}
	if len(body) > maxDatasetSize {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, "curated dataset is too large")
	}

	ctx, importer, err := ectoinject.GetContext[Importer](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	result, err := importer.ImportYAML(ctx, body)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithField("bytes", len(body)).Info("Curated dataset imported")
	}

	return c.JSON(http.StatusOK, result)
}

// listConfigurations handles GET /curated/configurations
func listConfigurations(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CuratedHandler.ListConfigurations")
	defer span.End()

	ctx, lister, err := ectoinject.GetContext[ConfigurationLister](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	configurations, err := lister.ListConfigurations(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, configurations)
}
