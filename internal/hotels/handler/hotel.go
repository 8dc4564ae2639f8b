package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"innkeep/internal/hotels/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

type HotelHandler struct {
	service service.HotelService
	log     *logger.Logger
}

func NewHotelHandler(service service.HotelService, log *logger.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		log:     log,
	}
}

func (h *HotelHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *HotelHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *HotelHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var hotel model.Hotel
	if err := json.NewDecoder(r.Body).Decode(&hotel); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), &hotel)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *HotelHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hotel, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", hotel)
}

func (h *HotelHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	hotels, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, hotels, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *HotelHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.HotelUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	hotel, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", hotel)
}

func (h *HotelHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func parseFilter(query url.Values) (model.HotelFilter, error) {
	filter := model.HotelFilter{
		Query: query.Get("q"),
		City:  query.Get("city"),
	}

	parsePrice := func(name string) (*decimal.Decimal, error) {
		s := query.Get(name)
		if s == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
		}
		return &d, nil
	}

	var err error
	if filter.MinPrice, err = parsePrice("min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice("max_price"); err != nil {
		return filter, err
	}

	if s := query.Get("rating"); s != "" {
		rating, err := strconv.ParseFloat(s, 64)
		if err != nil || rating < 0 || rating > 5 {
			return filter, apperrors.InvalidInput("invalid rating parameter: " + s)
		}
		filter.MinRating = &rating
	}
	return filter, nil
}

func (h *HotelHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/hotels", h.List)
	router.POST("/api/v1/hotels", h.Create)
	router.GET("/api/v1/hotels/:id", h.GetByID)
	router.PUT("/api/v1/hotels/:id", h.Update)
	router.DELETE("/api/v1/hotels/:id", h.Delete)
}
