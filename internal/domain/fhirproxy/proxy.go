// Package fhirproxy exposes a read-only, cached passthrough to the backend's
// FHIR facade. Only GET is mounted; FHIR writes do not exist in the portal.
package fhirproxy

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/cache"
	"github.com/carelink/portal/internal/platform/upstream"
	"github.com/carelink/portal/internal/platform/web"
)

type Service struct {
	api   *upstream.Client
	cache *cache.Cache
}

func NewService(api *upstream.Client, c *cache.Cache) *Service {
	return &Service{api: api, cache: c}
}

func scope() string { return cache.Scope("fhir") }

// Search fetches a FHIR resource type search, cached briefly.
func (s *Service) Search(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	key := cache.Key("fhir", "search", "resource="+resource, "query="+params.Encode())
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, []string{scope()},
		func(ctx context.Context) ([]byte, error) {
			return s.api.Get(ctx, upstream.Path("fhir", resource), upstream.Options{
				Op:     "fhir search",
				Params: params,
			})
		})
	return data, err
}

// Read fetches a single FHIR resource, cached briefly.
func (s *Service) Read(ctx context.Context, resource, id string) ([]byte, error) {
	key := cache.Key("fhir", "read", "resource="+resource, "id="+id)
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, []string{scope()},
		func(ctx context.Context) ([]byte, error) {
			return s.api.Get(ctx, upstream.Path("fhir", resource, id), upstream.Options{
				Op: "fhir read",
			})
		})
	return data, err
}

// Metadata fetches the capability statement. Reference data, cached long.
func (s *Service) Metadata(ctx context.Context) ([]byte, error) {
	key := cache.Key("fhir", "metadata")
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLLong, []string{scope()},
		func(ctx context.Context) ([]byte, error) {
			return s.api.Get(ctx, upstream.Path("fhir", "metadata"), upstream.Options{
				Op: "fhir metadata",
			})
		})
	return data, err
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/fhir", auth.RequireRole(auth.RoleProvider, auth.RoleResearcher, auth.RoleCompliance))
	g.GET("/metadata", h.Metadata)
	g.GET("/:resource", h.Search)
	g.GET("/:resource/:id", h.Read)
}

func (h *Handler) Search(c echo.Context) error {
	data, err := h.svc.Search(c.Request().Context(), c.Param("resource"), c.QueryParams())
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Read(c echo.Context) error {
	data, err := h.svc.Read(c.Request().Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Metadata(c echo.Context) error {
	data, err := h.svc.Metadata(c.Request().Context())
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}
