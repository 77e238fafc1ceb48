package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/gig-market/internal/models"
	"github.com/senyabanana/gig-market/internal/services"
	"github.com/senyabanana/gig-market/internal/utils"
)

// GigHandler - структура для обработки HTTP-запросов по заказам.
type GigHandler struct {
	Service *services.GigService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewGigHandler создает новый экземпляр GigHandler.
func NewGigHandler(service *services.GigService, logger *log.Logger, timeout time.Duration) *GigHandler {
	return &GigHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateGig обрабатывает запросы для создания заказа.
func (h *GigHandler) CreateGig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var gigReq models.GigRequest
	if err := json.NewDecoder(r.Body).Decode(&gigReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newGig, err := h.Service.CreateGig(ctx, gigReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to create gig")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(newGig); err != nil {
		h.Logger.Println(err)
	}
}

// GetGigs обрабатывает запросы для получения списка заказов.
func (h *GigHandler) GetGigs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	statuses := r.URL.Query()["status"]

	gigs, err := h.Service.FetchGigs(ctx, limitStr, offsetStr, statuses)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to retrieve gigs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(gigs); err != nil {
		h.Logger.Println(err)
	}
}

// GetGigByID обрабатывает запросы для получения одного заказа.
func (h *GigHandler) GetGigByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	gigId := r.PathValue("gigId")

	gig, err := h.Service.GetGigByID(ctx, gigId)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to retrieve gig")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(gig); err != nil {
		h.Logger.Println(err)
	}
}

// EditGig обрабатывает запросы изменения заказа.
func (h *GigHandler) EditGig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPut {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only PATCH or PUT is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	gigId := r.PathValue("gigId")
	userId := r.URL.Query().Get("userId")

	var updateFields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateFields); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updatedGig, err := h.Service.EditGig(ctx, gigId, userId, updateFields)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to update gig")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(updatedGig); err != nil {
		h.Logger.Println(err)
	}
}

// DeleteGig обрабатывает запросы удаления заказа.
func (h *GigHandler) DeleteGig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only DELETE is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	gigId := r.PathValue("gigId")
	userId := r.URL.Query().Get("userId")

	if err := h.Service.DeleteGig(ctx, gigId, userId); err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to delete gig")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
