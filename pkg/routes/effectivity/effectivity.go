package effectivity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/seeding"
	appctx "github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/utils"
)

type SeedingService interface {
	Seed(ctx context.Context, req models.SeedRequest) (*models.SeedResult, error)
	ActivateRevision(ctx context.Context, id int64) (*models.Revision, error)
	ListRevisions(ctx context.Context) ([]*models.Revision, error)
}

// Register registers the effectivity document routes
func Register(g *echo.Group) {
	g.POST("/documents", seed)
	g.POST("/parse", parse)
	g.GET("/revisions", listRevisions)
	g.PUT("/revisions/:id/activate", activateRevision)
}

// ParseRequest is the request body for a dry-run parse
type ParseRequest struct {
	Document string `json:"document" validate:"required"`
}

// seed handles POST /effectivity/documents
func seed(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EffectivityHandler.Seed")
	defer span.End()

	req, err := utils.BindRequest[models.SeedRequest](c)
	if err != nil {
		return err
	}
	ctx = appctx.SetRevision(ctx, req.Revision)

	ctx, svc, err := ectoinject.GetContext[SeedingService](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	result, err := svc.Seed(ctx, req)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

// parse handles POST /effectivity/parse. Nothing is persisted.
func parse(c echo.Context) error {
	_, span := tracing.StartSpan(c.Request().Context(), "EffectivityHandler.Parse")
	defer span.End()

	req, err := utils.BindRequest[ParseRequest](c)
	if err != nil {
		return err
	}

	preview, err := seeding.NewPreview(req.Document)
	if err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, preview)
}

// listRevisions handles GET /effectivity/revisions
func listRevisions(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EffectivityHandler.ListRevisions")
	defer span.End()

	ctx, svc, err := ectoinject.GetContext[SeedingService](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	revisions, err := svc.ListRevisions(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, revisions)
}

// activateRevision handles PUT /effectivity/revisions/:id/activate
func activateRevision(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EffectivityHandler.ActivateRevision")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid revision id %q", c.Param("id"))
	}

	ctx, svc, err := ectoinject.GetContext[SeedingService](ctx)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	revision, err := svc.ActivateRevision(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, revision)
}
