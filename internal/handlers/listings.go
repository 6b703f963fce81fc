package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"scrapbid/db"
	"scrapbid/internal/bids"

	"github.com/go-chi/chi/v5"
)

// CreateListingHandler обрабатывает POST /api/listings/new запрос
func (h *Handler) CreateListingHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var listing db.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid JSON format")
		return
	}

	if err := validateListingRequest(&listing); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), err.Error())
		return
	}

	if err := h.Store.CreateListing(r.Context(), &listing); err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to create listing")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// validateListingRequest проверяет необходимые поля лота
func validateListingRequest(l *db.Listing) error {
	if l.Name == "" || len(l.Name) > 100 {
		return errors.New("name is required and max length 100")
	}
	if len(l.Description) > 500 {
		return errors.New("description max length 500")
	}
	if l.QuantityAvailable < 0 {
		return errors.New("quantityAvailable must be non-negative")
	}
	for _, spec := range l.Specifications {
		if spec.Key == "" {
			return errors.New("specification keys must be non-empty")
		}
	}
	return nil
}

// GetListingsHandler возвращает список лотов, новые первыми
func (h *Handler) GetListingsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	listings, err := h.Store.GetListings(r.Context(), params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to get listings")
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// GetListingHandler возвращает один лот по id
func (h *Handler) GetListingHandler(w http.ResponseWriter, r *http.Request) {
	listingIDStr := chi.URLParam(r, "listingId")
	listingID, err := strconv.Atoi(listingIDStr)
	if err != nil || listingID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid listingId")
		return
	}

	listing, err := h.Store.GetListing(r.Context(), listingID)
	if err != nil {
		writeError(w, http.StatusNotFound, string(bids.KindNotFound), "listing not found")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// EditListingHandler обрабатывает PATCH /api/listings/{listingId}/edit запрос.
// Здесь же ресток: каталог — единственный, кто увеличивает quantity_available.
func (h *Handler) EditListingHandler(w http.ResponseWriter, r *http.Request) {
	listingIDStr := chi.URLParam(r, "listingId")
	listingID, err := strconv.Atoi(listingIDStr)
	if err != nil || listingID <= 0 {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid listingId")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Name              *string            `json:"name"`
		Description       *string            `json:"description"`
		QuantityAvailable *int               `json:"quantityAvailable"`
		Deadline          *time.Time         `json:"deadline"`
		Specifications    *db.Specifications `json:"specifications"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), "invalid JSON format")
		return
	}

	listing, err := h.Store.GetListing(r.Context(), listingID)
	if err != nil {
		writeError(w, http.StatusNotFound, string(bids.KindNotFound), "listing not found")
		return
	}

	// Обновляем поля, если они переданы
	if input.Name != nil {
		listing.Name = *input.Name
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.QuantityAvailable != nil {
		if *input.QuantityAvailable < 0 {
			writeError(w, http.StatusBadRequest, string(bids.KindValidation), "quantityAvailable must be non-negative")
			return
		}
		listing.QuantityAvailable = *input.QuantityAvailable
	}
	if input.Deadline != nil {
		listing.Deadline = input.Deadline
	}
	if input.Specifications != nil {
		listing.Specifications = *input.Specifications
	}

	if err := validateListingRequest(listing); err != nil {
		writeError(w, http.StatusBadRequest, string(bids.KindValidation), err.Error())
		return
	}

	if err := h.Store.UpdateListing(r.Context(), listing); err != nil {
		writeError(w, http.StatusInternalServerError, string(bids.KindDependencyFailure), "failed to update listing")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}
