package music

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soramiya/aria/internal/catalog/listing"
	"github.com/soramiya/aria/internal/platform/middleware"
	requestutil "github.com/soramiya/aria/internal/platform/request"
	"github.com/soramiya/aria/internal/platform/respond"
	"github.com/soramiya/aria/internal/platform/sec"
	"github.com/soramiya/aria/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/", handler.list)
	router.Get("/player", handler.player)
	router.Get("/{id}", handler.get)

	// Admin only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.create)
		adminRoute.Post("/import", handler.bulkImport)
		adminRoute.Patch("/{id}", handler.update)
	})

	return router
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Music IDs are UUIDv7, so ID order is creation order.
	page, meta := listing.Page(entries, pagination.FromRequest(request))
	respond.Paginated(writer, page, meta)
}

func (handler *Handler) player(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Player(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	track, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, track)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

func (handler *Handler) bulkImport(writer http.ResponseWriter, request *http.Request) {
	var inputs []Input
	if err := requestutil.DecodeJSON(request, &inputs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Import(request.Context(), inputs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, result)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}
