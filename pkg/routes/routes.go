// Package routes assembles the HTTP API.
package routes

import (
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/health"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/middleware"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes/aircraft"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes/curated"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes/diagnostics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes/parts"
)

const apiPrefix = "/api/v1"

type Options struct {
	ServiceName string
	BodyLimit   string
}

// ApplicabilityResolver classifies effectivity codes and part numbers.
type ApplicabilityResolver interface {
	aircraft.CodeResolver
	parts.PartsResolver
}

// Dependencies are the services the handlers resolve from the container. A route group
// is only registered when every dependency it needs is set.
type Dependencies struct {
	Configurations aircraft.ConfigurationResolver
	Applicability  ApplicabilityResolver
	Seeding        effectivity.SeedingService
	Importer       curated.Importer
	Curated        curated.ConfigurationLister
	Diagnoser      diagnostics.Diagnoser
}

// register puts the logger and every set dependency in the default container, keyed by
// the interface each route package resolves.
func register(logger ectologger.Logger, deps Dependencies) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if deps.Configurations != nil {
		if err := ectoinject.RegisterInstance[aircraft.ConfigurationResolver](container, deps.Configurations); err != nil {
			return err
		}
		if err := ectoinject.RegisterInstance[parts.ConfigurationResolver](container, deps.Configurations); err != nil {
			return err
		}
	}
	if deps.Applicability != nil {
		if err := ectoinject.RegisterInstance[aircraft.CodeResolver](container, deps.Applicability); err != nil {
			return err
		}
		if err := ectoinject.RegisterInstance[parts.PartsResolver](container, deps.Applicability); err != nil {
			return err
		}
	}
	if deps.Seeding != nil {
		if err := ectoinject.RegisterInstance[effectivity.SeedingService](container, deps.Seeding); err != nil {
			return err
		}
	}
	if deps.Importer != nil {
		if err := ectoinject.RegisterInstance[curated.Importer](container, deps.Importer); err != nil {
			return err
		}
	}
	if deps.Curated != nil {
		if err := ectoinject.RegisterInstance[curated.ConfigurationLister](container, deps.Curated); err != nil {
			return err
		}
	}
	if deps.Diagnoser != nil {
		if err := ectoinject.RegisterInstance[diagnostics.Diagnoser](container, deps.Diagnoser); err != nil {
			return err
		}
	}
	return nil
}

// NewServer registers the dependencies and builds the echo server with the middleware
// chain, the API groups, health checks and the Prometheus endpoint.
func NewServer(opts Options, logger ectologger.Logger, deps Dependencies, checker *health.Checker) (*echo.Echo, error) {
	if err := register(logger, deps); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	if opts.ServiceName != "" {
		e.Use(otelecho.Middleware(opts.ServiceName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.Recover())
	if opts.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(opts.BodyLimit))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if checker != nil {
		checker.RegisterRoutes(e)
	}

	api := e.Group(apiPrefix)
	if deps.Configurations != nil && deps.Applicability != nil {
		aircraft.Register(api.Group("/aircraft"))
		parts.Register(api.Group("/parts"))
	}
	if deps.Seeding != nil {
		effectivity.Register(api.Group("/effectivity"))
	}
	if deps.Importer != nil && deps.Curated != nil {
		curated.Register(api.Group("/curated"))
	}
	if deps.Diagnoser != nil {
		diagnostics.Register(api.Group("/diagnostics"))
	}

	return e, nil
}
