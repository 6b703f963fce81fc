package handlers

import (
	"net/http"
	"strconv"

	"scrapbid/internal/bids"

	"github.com/go-chi/chi/v5"
)

// Решения по предложениям принимает администратор; аутентификацию
// обеспечивает внешний слой, хендлеры считают вызов уже авторизованным.

// ApproveBidHandler обрабатывает PUT /api/bids/{bidId}/approve запрос
func (h *Handler) ApproveBidHandler(w http.ResponseWriter, r *http.Request) {
	bidIDStr := chi.URLParam(r, "bidId")
	bidID, err := strconv.Atoi(bidIDStr)
	if err != nil || bidID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid bidId")
		return
	}

	result, err := h.Bids.Approve(r.Context(), bidID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RejectBidHandler обрабатывает PUT /api/bids/{bidId}/reject запрос
func (h *Handler) RejectBidHandler(w http.ResponseWriter, r *http.Request) {
	bidIDStr := chi.URLParam(r, "bidId")
	bidID, err := strconv.Atoi(bidIDStr)
	if err != nil || bidID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid bidId")
		return
	}

	if err := h.Bids.Reject(r.Context(), bidID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Bid rejected"})
}

// GetListingBidsHandler обрабатывает GET /api/listings/{listingId}/bids запрос
func (h *Handler) GetListingBidsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	listingIDStr := chi.URLParam(r, "listingId")
	listingID, err := strconv.Atoi(listingIDStr)
	if err != nil || listingID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid listingId")
		return
	}

	list, err := h.Store.GetBidsForListing(r.Context(), listingID, params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to get bids for listing")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bids": list})
}
