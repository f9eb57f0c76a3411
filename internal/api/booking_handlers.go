package api

import (
	"context"
	"net/http"

	"carrental/internal/db"
	"carrental/internal/entities"
)

type BookingManager interface {
	Create(ctx context.Context, userID int64, req *entities.CreateBookingRequest) (*db.Booking, error)
	List(ctx context.Context, userID int64, page, limit int) (*entities.BookingList, error)
	Cancel(ctx context.Context, userID int64, isAdmin bool, bookingID int64) (*db.Booking, error)
}

type BookingHandler struct {
	Service BookingManager
}

func NewBookingHandler(svc BookingManager) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.Service.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Booking created successfully", map[string]any{"booking": booking})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := optionalInt(q, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.Service.List(r.Context(), claims.UserID, deref(page), deref(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Bookings retrieved successfully", list)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.Service.Cancel(r.Context(), claims.UserID, claims.IsAdmin(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Booking cancelled successfully", map[string]any{"booking": booking})
}
