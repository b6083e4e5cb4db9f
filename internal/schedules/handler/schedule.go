package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"reservd/internal/schedules/service"
	apperrors "reservd/pkg/errors"
	httputil "reservd/pkg/http"
	"reservd/pkg/logger"
	"reservd/pkg/model"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var submission model.ScheduleSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Submit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.Submit(r.Context(), &submission)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) GetByProviderDay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	providerID := query.Get("provider_id")
	date := query.Get("date")

	schedule, err := h.service.GetByProviderDay(r.Context(), providerID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByProviderDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByProviderDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	providerID := query.Get("provider_id")
	date := query.Get("date")

	available, err := h.service.GetAvailableSlots(r.Context(), providerID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAvailableSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, available); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailableSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GenerateSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	blockStr := r.URL.Query().Get("block_length")
	block, err := strconv.Atoi(blockStr)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid block_length parameter: %s", blockStr))); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GenerateSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	generated, err := h.service.GenerateSlots(r.Context(), model.BlockLength(block))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GenerateSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, generated); err != nil {
		h.log.Error("failed to write success response", "handler", "GenerateSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetSupportedBlockLengths(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	supported, err := h.service.GetSupportedBlockLengths(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSupportedBlockLengths", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, supported); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSupportedBlockLengths", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedules", h.Submit)
	router.GET("/api/v1/schedules", h.GetByProviderDay)
	router.DELETE("/api/v1/schedules/id/:id", h.Delete)
	router.GET("/api/v1/schedules/slots/available", h.GetAvailableSlots)
	router.GET("/api/v1/schedules/slots/generate", h.GenerateSlots)
	router.GET("/api/v1/schedules/block-lengths", h.GetSupportedBlockLengths)
}
