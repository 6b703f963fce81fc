package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"scrapbid/internal/bids"

	"github.com/go-chi/chi/v5"
)

// SubmitBidHandler обрабатывает POST /api/bids/new запрос.
// Код подтверждения уходит на email и в ответ не попадает.
func (h *Handler) SubmitBidHandler(w http.ResponseWriter, r *http.Request) {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var req bids.SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid JSON format")
		return
	}

	bid, err := h.Bids.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":   "Bid submitted. Please verify OTP sent to your email.",
		"bidId": bid.ID,
	})
}

// VerifyBidHandler обрабатывает POST /api/bids/{bidId}/verify запрос
func (h *Handler) VerifyBidHandler(w http.ResponseWriter, r *http.Request) {
	bidIDStr := chi.URLParam(r, "bidId")
	bidID, err := strconv.Atoi(bidIDStr)
	if err != nil || bidID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid bidId")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Otp string `json:"otp"`
	}
	if err := json.Unmarshal(body, &input); err != nil || input.Otp == "" {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "otp is required")
		return
	}

	if err := h.Bids.Verify(r.Context(), bidID, input.Otp); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Bid verified successfully"})
}

// BidStatusHandler обрабатывает POST /api/bid-status запрос:
// все предложения по email с именем лота и текущим статусом
func (h *Handler) BidStatusHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid JSON format")
		return
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "email is required")
		return
	}

	entries, err := h.Store.GetBidsByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to get bids")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, string(bids.KindNotFound), "no bids found for this email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bids": entries})
}
