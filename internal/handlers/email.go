package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"scrapbid/db"
	"scrapbid/internal/bids"
	"scrapbid/internal/notify"
	"scrapbid/internal/otp"
)

// Подтверждение e-mail — отдельный простой поток на том же примитиве OTP.
// Код живет в таблице email_verification, по одной записи на адрес:
// повторная отправка перезаписывает код и срок.

// SendEmailOTPHandler обрабатывает POST /api/email/send-otp запрос
func (h *Handler) SendEmailOTPHandler(w http.ResponseWriter, r *http.Request) {
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

	code, err := otp.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to generate code")
		return
	}

	verification := &db.EmailVerification{
		Email:     email,
		OtpCode:   code,
		OtpExpiry: otp.ExpiryFrom(time.Now()),
	}
	if err := h.Store.UpsertEmailVerification(r.Context(), verification); err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to store verification")
		return
	}

	if err := h.Mailer.Send(r.Context(), email, "Your Email Verification OTP", notify.EmailOTPBody(code)); err != nil {
		// не оставляем запись с недоставленным кодом
		_ = h.Store.DeleteEmailVerification(r.Context(), email)
		writeError(w, http.StatusBadGateway, string(bids.KindDependencyFailure), "failed to send verification code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "OTP sent to email"})
}

// VerifyEmailOTPHandler обрабатывает POST /api/email/verify-otp запрос
func (h *Handler) VerifyEmailOTPHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Email string `json:"email"`
		Otp   string `json:"otp"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid JSON format")
		return
	}
	if input.Email == "" || input.Otp == "" {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "email and otp are required")
		return
	}

	verification, err := h.Store.GetEmailVerification(r.Context(), input.Email)
	if err != nil {
		if db.IsNotFound(err) {
			writeError(w, http.StatusNotFound, string(bids.KindNotFound), "OTP not found, please request a new one")
			return
		}
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to read verification")
		return
	}
	if time.Now().After(verification.OtpExpiry) {
		writeError(w, http.StatusBadRequest, string(bids.KindOtpExpired), "verification code has expired, please request a new one")
		return
	}
	if verification.OtpCode != input.Otp {
		writeError(w, http.StatusBadRequest, string(bids.KindInvalidOtp), "invalid verification code")
		return
	}

	// код одноразовый: запись удаляется при успехе
	if err := h.Store.DeleteEmailVerification(r.Context(), input.Email); err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to consume verification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Email verified successfully"})
}
