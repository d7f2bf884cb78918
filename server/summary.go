package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/memory"
)

const defaultListLimit = 100

func (s *Server) registerSummaryRoutes(g *echo.Group) {
	summaries := g.Group("/tenants/:tenant/summaries")
	summaries.GET("", s.listSummaries)
	summaries.POST("", s.ingestSummary)
	summaries.DELETE("", s.deleteSummaries)
	summaries.POST("/search", s.searchSummaries)
	summaries.GET("/:id", s.getSummary)
	summaries.PATCH("/:id", s.updateSummary)
	summaries.DELETE("/:id", s.deleteSummary)
}

type ingestRequest struct {
	Summary string  `json:"summary"`
	Turn    *int    `json:"turn"`
	Type    *string `json:"type"`

	// Dialogue, when set instead of Summary, is summarized by the LLM
	// before ingestion.
	Dialogue string `json:"dialogue"`

	// Merge controls consolidation with near-duplicate records. Defaults
	// to true; ignored when no LLM is configured.
	Merge *bool `json:"merge"`
}

func (s *Server) ingestSummary(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "malformed request body"))
	}
	tenant := c.Param("tenant")
	ctx := c.Request().Context()

	if req.Dialogue != "" {
		if s.consolidator == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "dialogue ingestion requires an LLM"})
		}
		result, err := s.consolidator.IngestDialogue(ctx, tenant, req.Dialogue, req.Turn, req.Type)
		if err != nil {
			return errResponse(c, err)
		}
		return c.JSON(http.StatusCreated, result)
	}

	merge := req.Merge == nil || *req.Merge
	if merge && s.consolidator != nil {
		result, err := s.consolidator.Ingest(ctx, tenant, req.Summary, req.Turn, req.Type)
		if err != nil {
			return errResponse(c, err)
		}
		return c.JSON(http.StatusCreated, result)
	}

	record, err := s.repo.Add(ctx, tenant, &memory.AddRequest{
		Summary: req.Summary,
		Turn:    req.Turn,
		Type:    req.Type,
	})
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

type updateRequest struct {
	Summary string  `json:"summary"`
	Turn    *int    `json:"turn"`
	Type    *string `json:"type"`
}

func (s *Server) updateSummary(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "malformed request body"))
	}
	record, err := s.repo.Update(c.Request().Context(), c.Param("tenant"), c.Param("id"), &memory.UpdateRequest{
		Summary: req.Summary,
		Turn:    req.Turn,
		Type:    req.Type,
	})
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) getSummary(c echo.Context) error {
	record, err := s.repo.GetByID(c.Request().Context(), c.Param("tenant"), c.Param("id"))
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) deleteSummary(c echo.Context) error {
	if err := s.repo.Delete(c.Request().Context(), c.Param("tenant"), c.Param("id")); err != nil {
		return errResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type deleteManyRequest struct {
	UUIDs []string `json:"uuids"`
}

func (s *Server) deleteSummaries(c echo.Context) error {
	var req deleteManyRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "malformed request body"))
	}
	if err := s.repo.DeleteMany(c.Request().Context(), c.Param("tenant"), req.UUIDs); err != nil {
		return errResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// listSummaries supports three paging styles: page/size offset paging, an
// "after" id cursor, or a plain limit over the most recent records. The
// cursor mode is selected by the presence of the "after" key; an empty
// value starts the walk from the first id, so every page shares the same
// id-ascending ordering.
func (s *Server) listSummaries(c echo.Context) error {
	tenant := c.Param("tenant")
	ctx := c.Request().Context()

	if pageParam := c.QueryParam("page"); pageParam != "" {
		page, err := queryInt(c, "page", 1)
		if err != nil {
			return errResponse(c, err)
		}
		size, err := queryInt(c, "size", 10)
		if err != nil {
			return errResponse(c, err)
		}
		result, err := s.repo.ListOffset(ctx, tenant, page, size)
		if err != nil {
			return errResponse(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}

	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return errResponse(c, err)
	}

	if c.QueryParams().Has("after") {
		result, err := s.repo.ListCursor(ctx, tenant, c.QueryParam("after"), limit)
		if err != nil {
			return errResponse(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}

	result, err := s.repo.List(ctx, tenant, limit)
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	TopK  int    `json:"top_k"`

	// MaxDistance left out of the body means "use the configured default";
	// an explicit 0.0 is honored and matches nothing.
	MaxDistance *float64 `json:"max_distance"`
}

func (s *Server) searchSummaries(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return errResponse(c, errors.Wrap(memory.ErrValidation, "malformed request body"))
	}
	if req.Mode == "" {
		req.Mode = string(memory.ModeSimilarity)
	}
	result, err := s.repo.Search(c.Request().Context(), c.Param("tenant"), &memory.SearchRequest{
		Query:       req.Query,
		Mode:        memory.Mode(req.Mode),
		TopK:        req.TopK,
		MaxDistance: req.MaxDistance,
	})
	if err != nil {
		return errResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(memory.ErrValidation, "invalid %s %q", name, raw)
	}
	return value, nil
}
