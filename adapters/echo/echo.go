// Package hxgridecho provides Echo framework integration for hxgrid.
//
// Mount the grid routes onto an Echo instance:
//
//	e := echo.New()
//	reg, err := hxgridecho.Mount(ctx, e, cfg)
//	reg.Add(ordersGrid)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg, err := hxgridecho.MountGroup(ctx, g, "/app", cfg)
//	reg.Add(ordersGrid)
package hxgridecho

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxgrid"
)

// Mount creates a registry and mounts its routes on an Echo instance at
// cfg.Prefix.
//
//	e := echo.New()
//	reg, err := hxgridecho.Mount(ctx, e, hxgrid.Config{ExportSalt: salt})
//
//	// With options:
//	reg, err := hxgridecho.Mount(ctx, e, cfg, hxgrid.WithLogger(logger))
func Mount(ctx context.Context, e *echo.Echo, cfg hxgrid.Config, opts ...hxgrid.Option) (*hxgrid.Registry, error) {
	reg, err := hxgrid.NewRegistry(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	e.Any(reg.Config().Prefix+"/*", echo.WrapHandler(reg.Handler()))
	return reg, nil
}

// MountGroup creates a registry and mounts its routes on an Echo group, so
// grid routes share the group middleware (auth, logging, etc.). base is
// the path the group was created with; rendered links and the download
// form point below it.
//
//	g := e.Group("/app", authMiddleware)
//	reg, err := hxgridecho.MountGroup(ctx, g, "/app", cfg)
func MountGroup(ctx context.Context, g *echo.Group, base string, cfg hxgrid.Config, opts ...hxgrid.Option) (*hxgrid.Registry, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = hxgrid.DefaultConfig().Prefix
	}
	cfg.Prefix = strings.TrimSuffix(base, "/") + prefix

	reg, err := hxgrid.NewRegistry(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	g.Any(prefix+"/*", echo.WrapHandler(reg.Handler()))
	return reg, nil
}

// Middleware installs a fresh asset collector for each request, see
// hxgrid.AssetsMiddleware.
func Middleware(baseURL string) echo.MiddlewareFunc {
	return echo.WrapMiddleware(hxgrid.AssetsMiddleware(baseURL))
}

// Params reads the grid parameters of the request.
func Params(c echo.Context) hxgrid.Params {
	return hxgrid.ParamsFromRequest(c.Request())
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxgridecho.Render(c, ordersGrid.Component(hxgridecho.Params(c)))
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
