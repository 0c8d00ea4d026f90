package revalidate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/middleware"
	requestutil "github.com/soramiya/aria/internal/platform/request"
	"github.com/soramiya/aria/internal/platform/respond"
	"github.com/soramiya/aria/internal/platform/sec"
	"github.com/soramiya/aria/internal/platform/validate"
)

// Input is the revalidation request body.
type Input struct {
	Paths []string `json:"paths"`
}

// PagePurger removes cached page payloads, normally backed by the Redis
// page cache.
type PagePurger interface {
	Purge(ctx context.Context, paths []string) (int, error)
}

// Handler serves the admin revalidation endpoint: it purges the cached page
// payloads for the given paths so the next request re-renders them.
type Handler struct {
	pages  PagePurger
	logger *slog.Logger
}

func NewHandler(pages PagePurger, logger *slog.Logger) *Handler {
	return &Handler{pages: pages, logger: logger}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))
	router.Post("/", handler.revalidate)
	return router
}

func (handler *Handler) revalidate(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validatePaths(input.Paths); err != nil {
		respond.Error(writer, request, err)
		return
	}

	purged, err := handler.pages.Purge(request.Context(), input.Paths)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	handler.logger.Info("pages_revalidated",
		slog.Int("requested", len(input.Paths)),
		slog.Int("purged", purged),
	)
	respond.OK(writer, map[string]string{
		"message": fmt.Sprintf("Revalidated %d path(s)", len(input.Paths)),
	})
}

func validatePaths(paths []string) error {
	validator := &validate.Validator{}
	validator.Custom("paths", len(paths) == 0, "Must be a non-empty array of paths")
	for i, path := range paths {
		validator.Custom(fmt.Sprintf("paths[%d]", i),
			path == "" || !strings.HasPrefix(path, "/"),
			"Must be an absolute page path")
	}
	return validator.Err()
}
