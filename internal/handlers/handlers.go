package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"scrapbid/db"
	"scrapbid/internal/bids"
)

// BidService — жизненный цикл предложения (подача, верификация, решение)
type BidService interface {
	Submit(ctx context.Context, req bids.SubmitRequest) (*db.Bid, error)
	Verify(ctx context.Context, bidID int, code string) error
	Approve(ctx context.Context, bidID int) (*bids.ApprovalResult, error)
	Reject(ctx context.Context, bidID int) error
}

// Handler оборачивает сервис предложений и Storage для доступа к данным
type Handler struct {
	Store  StorageInterface
	Bids   BidService
	Mailer bids.Sender
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, svc BidService, mailer bids.Sender) *Handler {
	return &Handler{Store: store, Bids: svc, Mailer: mailer}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// errorBody — тело ошибки: стабильный вид + сообщение
type errorBody struct {
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

var kindStatus = map[bids.Kind]int{
	bids.KindValidation:           http.StatusBadRequest,
	bids.KindNotFound:             http.StatusNotFound,
	bids.KindStateConflict:        http.StatusConflict,
	bids.KindOtpExpired:           http.StatusBadRequest,
	bids.KindInvalidOtp:           http.StatusBadRequest,
	bids.KindOtpLocked:            http.StatusTooManyRequests,
	bids.KindInsufficientQuantity: http.StatusConflict,
	bids.KindListingExpired:       http.StatusConflict,
	bids.KindDependencyFailure:    http.StatusBadGateway,
}

// writeServiceError переводит ошибку сервиса в HTTP-статус и JSON-тело
func writeServiceError(w http.ResponseWriter, err error) {
	kind := bids.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	// внутренности стораджа/SMTP наружу не отдаем
	msg := "dependency unavailable"
	var e *bids.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	writeError(w, status, string(kind), msg)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Kind: kind, Msg: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 20 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}
