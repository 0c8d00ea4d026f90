package album

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soramiya/aria/internal/catalog/listing"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/middleware"
	requestutil "github.com/soramiya/aria/internal/platform/request"
	"github.com/soramiya/aria/internal/platform/respond"
	"github.com/soramiya/aria/internal/platform/sec"
	"github.com/soramiya/aria/pkg/pagination"
)

type Handler struct {
	service *Service
	blobs   *blob.Store
}

func NewHandler(service *Service, blobs *blob.Store) *Handler {
	return &Handler{service: service, blobs: blobs}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Admin only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.create)
		adminRoute.Patch("/{id}", handler.update)
		adminRoute.Put("/{id}/art", handler.uploadArt)
	})

	return router
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, meta := listing.Page(entries, pagination.FromRequest(request))
	respond.Paginated(writer, page, meta)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	detail, err := handler.service.GetDetail(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
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

func (handler *Handler) uploadArt(writer http.ResponseWriter, request *http.Request) {
	if handler.blobs == nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Object storage is not configured"))
		return
	}

	id := requestutil.ID(request, "id")
	if _, err := handler.service.Get(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, header, err := requestutil.FormFile(request, "file")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer func() { _ = file.Close() }()

	err = handler.blobs.Upload(request.Context(), constants.BlobAlbumArts, id,
		file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.NoContent(writer)
}
