package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/memory"
	"github.com/hrygo/recollect/store"
)

func (s *Server) registerTenantRoutes(g *echo.Group) {
	g.GET("/summary/tenants", s.listTenants)
	g.POST("/summary/tenants", s.createTenant)
	g.DELETE("/summary/tenants/:name", s.removeTenant)
}

type createTenantRequest struct {
	Tenant string `json:"tenant"`
}

func (s *Server) createTenant(c echo.Context) error {
	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "malformed request body"))
	}
	name := strings.TrimSpace(req.Tenant)
	if name == "" {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "tenant must not be empty"))
	}
	if err := s.Store.CreateTenant(c.Request().Context(), name); err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"tenant": name})
}

func (s *Server) removeTenant(c echo.Context) error {
	name := c.Param("name")
	if err := s.Store.RemoveTenant(c.Request().Context(), name); err != nil {
		return errResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTenants(c echo.Context) error {
	tenants, err := s.Store.ListTenants(c.Request().Context())
	if err != nil {
		return errResponse(c, err)
	}
	data := make([]store.TenantInfo, 0, len(tenants))
	for _, info := range tenants {
		data = append(data, info)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Name < data[j].Name })
	return c.JSON(http.StatusOK, map[string]any{"total": len(data), "data": data})
}
