package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anonto42/tipbox/backend/internal/search"
	"github.com/anonto42/tipbox/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	defaultSearchSize = 20
	defaultSearchMode = "OR"
)

type SearchHandler struct {
	searchService *services.SearchService
	logger        *slog.Logger
}

func NewSearchHandler(searchService *services.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searchService: searchService, logger: logger}
}

// RegisterSearchRoutes registers the tip search routes. Public search is
// open to anonymous callers; the other scopes need a user.
func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group, requireUser echo.MiddlewareFunc) {
	g.GET("/search/tips/public", h.searchScope(search.ScopePublic, ""))
	g.GET("/search/tips/my", h.searchScope(search.ScopeMine, ""), requireUser)
	g.GET("/search/tips/group/:id", h.searchScope(search.ScopeGroup, "id"), requireUser)
	g.GET("/search/tips/storage/:id", h.searchScope(search.ScopeStorage, "id"), requireUser)
}

func (h *SearchHandler) searchScope(scope search.Scope, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := services.SearchRequest{
			Scope:   scope,
			ActorID: getUserIDFromContext(c),
			Keyword: c.QueryParam("keyword"),
			Mode:    c.QueryParam("mode"),
		}
		if req.Mode == "" {
			req.Mode = defaultSearchMode
		}

		if idParam != "" {
			id, err := parseIDParam(c, idParam)
			if err != nil {
				return err
			}
			req.ScopeID = id
		}

		var err error
		if req.Page, err = intQuery(c, "page", 0); err != nil {
			return err
		}
		if req.Size, err = intQuery(c, "size", defaultSearchSize); err != nil {
			return err
		}

		tips, err := h.searchService.Search(c.Request().Context(), req)
		if err != nil {
			return toHTTPError(h.logger, err)
		}
		return respond(c, http.StatusOK, tips)
	}
}
