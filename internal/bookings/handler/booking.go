package handler

import (
	"encoding/json"
	"net/http"

	"innkeep/internal/bookings/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := httputil.RequireUser(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := httputil.RequireUser(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"), userID)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := httputil.RequireUser(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, total, err := h.service.ListByUser(r.Context(), userID, status, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := httputil.RequireUser(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Modify(r.Context(), ps.ByName("id"), userID, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := httputil.RequireUser(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), userID)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	h.writeSuccess(w, "Cancel", booking)
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	checkInStr, checkOutStr := query.Get("check_in"), query.Get("check_out")
	if checkInStr == "" || checkOutStr == "" {
		h.writeError(w, "Availability", apperrors.InvalidInput("Both 'check_in' and 'check_out' query parameters are required"))
		return
	}

	checkIn, err := model.ParseDate(checkInStr)
	if err != nil {
		h.writeError(w, "Availability", apperrors.InvalidInput(err.Error()))
		return
	}
	checkOut, err := model.ParseDate(checkOutStr)
	if err != nil {
		h.writeError(w, "Availability", apperrors.InvalidInput(err.Error()))
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), ps.ByName("id"), checkIn, checkOut)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	h.writeSuccess(w, "Availability", availability)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PUT("/api/v1/bookings/id/:id", h.Update)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.GET("/api/v1/hotels/:id/availability", h.Availability)
}
