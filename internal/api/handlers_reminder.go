// Package api wires the HTTP surface: reminder CRUD, health, the websocket
// endpoint and the SSE stream.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/acelee0621/memenote/internal/api/respond"
	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/service"
)

type ReminderHandler struct {
	svc *service.ReminderService
}

func NewReminderHandler(svc *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	var in struct {
		Message    string    `json:"message"`
		RemindTime time.Time `json:"reminder_time"`
		NoteID     *int64    `json:"note_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	rem := &model.Reminder{
		UserID:     userID,
		NoteID:     in.NoteID,
		RemindTime: in.RemindTime,
		Message:    in.Message,
	}
	out, err := h.svc.Create(r.Context(), rem)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	req := model.ListRemindersRequest{
		UserID:  userID,
		Search:  r.URL.Query().Get("search"),
		OrderBy: r.URL.Query().Get("order_by"),
	}
	if raw := r.URL.Query().Get("note_id"); raw != "" {
		noteID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.WriteBadRequest(w, "note_id must be an integer")
			return
		}
		req.NoteID = &noteID
	}
	out, err := h.svc.List(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if out == nil {
		out = []*model.Reminder{}
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ReminderHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ReminderHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	var in struct {
		Message        *string    `json:"message,omitempty"`
		RemindTime     *time.Time `json:"reminder_time,omitempty"`
		IsAcknowledged *bool      `json:"is_acknowledged,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.svc.Update(r.Context(), userID, id, model.UpdateReminderRequest{
		RemindTime:     in.RemindTime,
		Message:        in.Message,
		IsAcknowledged: in.IsAcknowledged,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) AcknowledgeReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Acknowledge(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func reminderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respond.WriteBadRequest(w, "reminder id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "reminder not found")
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
