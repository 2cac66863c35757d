package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/queue"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
)

type Handler struct {
	store           store.Store
	sessionTTL      time.Duration
	waitPerCustomer time.Duration
}

type Options struct {
	SessionTTL      time.Duration
	WaitPerCustomer time.Duration
}

func NewHandler(store store.Store, options Options) *Handler {
	waitPerCustomer := options.WaitPerCustomer
	if waitPerCustomer <= 0 {
		waitPerCustomer = queue.DefaultWaitPerCustomer
	}
	return &Handler{
		store:           store,
		sessionTTL:      options.SessionTTL,
		waitPerCustomer: waitPerCustomer,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/public/queue/entries", h.handleJoinQueue)
	mux.HandleFunc("/api/public/queue/entries/", h.handleEntryPosition)
	mux.HandleFunc("/api/public/queue/status", h.handleQueueStatus)
	mux.HandleFunc("/api/public/reservations", h.handleCreateReservation)
	mux.HandleFunc("/api/queue", h.handleListQueue)
	mux.HandleFunc("/api/queue/entries/", h.handleEntryActions)
	mux.HandleFunc("/api/reservations", h.handleListReservations)
	mux.HandleFunc("/api/reservations/", h.handleReservationActions)
	mux.HandleFunc("/api/analytics/summary", h.handleAnalyticsSummary)
	mux.HandleFunc("/api/business/queue-open", h.handleQueueOpen)
	mux.HandleFunc("/api/business/schedule", h.handleSchedule)
	mux.HandleFunc("/api/business/settings", h.handleSettings)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID  string `json:"session_id"`
	ExpiresAt  string `json:"expires_at"`
	BusinessID string `json:"business_id"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if req.Email == "" || req.Password == "" {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	session, err := h.store.Login(r.Context(), store.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TTL:      h.sessionTTL,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeError(w, "", http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		writeError(w, "", http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		SessionID:  session.SessionID,
		ExpiresAt:  session.ExpiresAt.Format(time.RFC3339),
		BusinessID: session.BusinessID,
	})
}

type joinQueueRequest struct {
	RequestID     string `json:"request_id"`
	BusinessID    string `json:"business_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PartySize     int    `json:"party_size"`
	Notes         string `json:"notes"`
}

func (h *Handler) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req joinQueueRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.RequestID == "" || req.BusinessID == "" || req.CustomerName == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id, business_id, and customer_name are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.BusinessID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id must be UUIDs")
		return
	}
	if req.CustomerPhone != "" && !isValidPhone(req.CustomerPhone) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "customer_phone must be 8-16 digits")
		return
	}
	if req.PartySize < 0 || req.PartySize > 50 {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "party_size out of range")
		return
	}

	entry, _, err := h.store.JoinQueue(r.Context(), store.JoinQueueInput{
		RequestID:     req.RequestID,
		BusinessID:    req.BusinessID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PartySize:     req.PartySize,
		Notes:         req.Notes,
		JoinedAt:      time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

type queueStatusResponse struct {
	Open                 bool `json:"open"`
	QueueLength          int  `json:"queue_length"`
	EstimatedWaitMinutes int  `json:"estimated_wait_minutes"`
}

// handleQueueStatus is the page-load queue summary. It uses the same
// injected per-customer wait value as the live recalculator.
func (h *Handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" || !isValidUUID(businessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}

	business, err := h.store.GetBusiness(r.Context(), businessID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	windows, err := h.store.ListScheduleWindows(r.Context(), businessID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	count, err := h.store.CountWaiting(r.Context(), businessID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, queueStatusResponse{
		Open:                 queue.Accepting(business, now) && queue.OpenNow(business, windows, now),
		QueueLength:          count,
		EstimatedWaitMinutes: queue.EstimateMinutes(count, h.waitPerCustomer),
	})
}

type entryPositionResponse struct {
	EntryID              string `json:"entry_id"`
	Status               string `json:"status"`
	Rank                 int    `json:"rank,omitempty"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

func (h *Handler) handleEntryPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/public/queue/entries/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "position" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	entryID := parts[0]
	if !isValidUUID(entryID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "entry_id must be a UUID")
		return
	}

	entry, err := h.store.GetEntry(r.Context(), entryID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}

	resp := entryPositionResponse{EntryID: entry.EntryID, Status: entry.Status}
	if entry.Status == models.StatusWaiting {
		ahead, err := h.store.CountWaitingAhead(r.Context(), entry.BusinessID, entry.Position)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, "", status, code, msg)
			return
		}
		resp.Rank = queue.Rank(ahead)
		resp.EstimatedWaitMinutes = queue.EstimateMinutes(ahead, h.waitPerCustomer)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" || !isValidUUID(businessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, businessID) {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	entries, err := h.store.ListQueue(r.Context(), businessID, status)
	if err != nil {
		httpStatus, code, msg := mapError(err)
		writeError(w, "", httpStatus, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type entryActionRequest struct {
	RequestID  string `json:"request_id"`
	BusinessID string `json:"business_id"`
	Reason     string `json:"reason"`
}

func (h *Handler) handleEntryActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/queue/entries/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[1] != "actions" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	entryID := parts[0]
	action := parts[2]
	if !isValidUUID(entryID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "entry_id must be a UUID")
		return
	}

	var req entryActionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.Reason = strings.TrimSpace(req.Reason)

	if req.RequestID == "" || req.BusinessID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.BusinessID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id must be UUIDs")
		return
	}
	if !requireBusiness(w, r, req.BusinessID) {
		return
	}

	input := store.EntryActionInput{
		RequestID:  req.RequestID,
		BusinessID: req.BusinessID,
		EntryID:    entryID,
		Reason:     req.Reason,
		OccurredAt: time.Now().UTC(),
	}

	var entry models.QueueEntry
	var err error
	switch action {
	case "call":
		entry, _, err = h.store.CallEntry(r.Context(), input)
	case "attend":
		entry, _, err = h.store.AttendEntry(r.Context(), input)
	case "complete":
		entry, _, err = h.store.CompleteEntry(r.Context(), input)
	case "cancel":
		// A cancellation without a reason never reaches the store.
		if req.Reason == "" {
			writeError(w, req.RequestID, http.StatusBadRequest, "reason_required", "cancellation requires a reason")
			return
		}
		entry, _, err = h.store.CancelEntry(r.Context(), input)
	case "no-show":
		entry, _, err = h.store.NoShowEntry(r.Context(), input)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type createReservationRequest struct {
	RequestID     string `json:"request_id"`
	BusinessID    string `json:"business_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PartySize     int    `json:"party_size"`
	ReservedFor   string `json:"reserved_for"`
	Notes         string `json:"notes"`
}

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.ReservedFor = strings.TrimSpace(req.ReservedFor)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.RequestID == "" || req.BusinessID == "" || req.CustomerName == "" || req.ReservedFor == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id, business_id, customer_name, and reserved_for are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.BusinessID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id must be UUIDs")
		return
	}
	if req.CustomerPhone != "" && !isValidPhone(req.CustomerPhone) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "customer_phone must be 8-16 digits")
		return
	}
	reservedFor, err := time.Parse(time.RFC3339, req.ReservedFor)
	if err != nil {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "reserved_for must be an RFC3339 timestamp")
		return
	}

	reservation, _, err := h.store.CreateReservation(r.Context(), store.CreateReservationInput{
		RequestID:     req.RequestID,
		BusinessID:    req.BusinessID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PartySize:     req.PartySize,
		ReservedFor:   reservedFor.UTC(),
		Notes:         req.Notes,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" || !isValidUUID(businessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, businessID) {
		return
	}

	dateRaw := strings.TrimSpace(r.URL.Query().Get("date"))
	day := time.Now().UTC()
	if dateRaw != "" {
		parsed, err := time.Parse("2006-01-02", dateRaw)
		if err != nil {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	reservations, err := h.store.ListReservations(r.Context(), businessID, day)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *Handler) handleReservationActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reservations/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[1] != "actions" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	reservationID := parts[0]
	action := parts[2]
	if !isValidUUID(reservationID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "reservation_id must be a UUID")
		return
	}

	var req entryActionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.Reason = strings.TrimSpace(req.Reason)

	if req.RequestID == "" || req.BusinessID == "" {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id are required")
		return
	}
	if !isValidUUID(req.RequestID) || !isValidUUID(req.BusinessID) {
		writeError(w, req.RequestID, http.StatusBadRequest, "invalid_request", "request_id and business_id must be UUIDs")
		return
	}
	if !requireBusiness(w, r, req.BusinessID) {
		return
	}

	input := store.ReservationActionInput{
		RequestID:     req.RequestID,
		BusinessID:    req.BusinessID,
		ReservationID: reservationID,
		Reason:        req.Reason,
		OccurredAt:    time.Now().UTC(),
	}

	var reservation models.Reservation
	var err error
	switch action {
	case "confirm":
		reservation, _, err = h.store.ConfirmReservation(r.Context(), input)
	case "cancel":
		if req.Reason == "" {
			writeError(w, req.RequestID, http.StatusBadRequest, "reason_required", "cancellation requires a reason")
			return
		}
		reservation, _, err = h.store.CancelReservation(r.Context(), input)
	case "complete":
		reservation, _, err = h.store.CompleteReservation(r.Context(), input)
	case "no-show":
		reservation, _, err = h.store.NoShowReservation(r.Context(), input)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, req.RequestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" || !isValidUUID(businessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, businessID) {
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if fromRaw := strings.TrimSpace(r.URL.Query().Get("from")); fromRaw != "" {
		parsed, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "from must be an RFC3339 timestamp")
			return
		}
		from = parsed
	}
	if toRaw := strings.TrimSpace(r.URL.Query().Get("to")); toRaw != "" {
		parsed, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "to must be an RFC3339 timestamp")
			return
		}
		to = parsed
	}

	summary, err := h.store.Summary(r.Context(), businessID, from, to)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type queueOpenRequest struct {
	BusinessID string `json:"business_id"`
	Open       bool   `json:"open"`
}

func (h *Handler) handleQueueOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req queueOpenRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	if req.BusinessID == "" || !isValidUUID(req.BusinessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, req.BusinessID) {
		return
	}

	if err := h.store.SetQueueOpen(r.Context(), req.BusinessID, req.Open); err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleRequest struct {
	BusinessID string                  `json:"business_id"`
	Windows    []models.ScheduleWindow `json:"windows"`
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req scheduleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, "", http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	if req.BusinessID == "" || !isValidUUID(req.BusinessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, req.BusinessID) {
		return
	}
	for _, window := range req.Windows {
		if window.Weekday < 0 || window.Weekday > 6 {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "weekday must be 0-6")
			return
		}
		if window.OpensAt < 0 || window.OpensAt > 1439 || window.ClosesAt < 0 || window.ClosesAt > 1439 {
			writeError(w, "", http.StatusBadRequest, "invalid_request", "window times must be minutes 0-1439")
			return
		}
	}

	if err := h.store.ReplaceSchedule(r.Context(), req.BusinessID, req.Windows); err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsResponse struct {
	Business models.Business         `json:"business"`
	Windows  []models.ScheduleWindow `json:"windows"`
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" || !isValidUUID(businessID) {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id must be a UUID")
		return
	}
	if !requireBusiness(w, r, businessID) {
		return
	}

	business, err := h.store.GetBusiness(r.Context(), businessID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	windows, err := h.store.ListScheduleWindows(r.Context(), businessID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, "", status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Business: business, Windows: windows})
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

func isValidPhone(value string) bool {
	if len(value) < 8 || len(value) > 16 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type errorResponse struct {
	RequestID string        `json:"request_id,omitempty"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrBusinessNotFound):
		return http.StatusNotFound, "business_not_found", "business not found"
	case errors.Is(err, store.ErrEntryNotFound):
		return http.StatusNotFound, "entry_not_found", "queue entry not found"
	case errors.Is(err, store.ErrReservationNotFound):
		return http.StatusNotFound, "reservation_not_found", "reservation not found"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "current state does not allow this action"
	case errors.Is(err, store.ErrReasonRequired):
		return http.StatusBadRequest, "reason_required", "cancellation requires a reason"
	case errors.Is(err, store.ErrQueueClosed):
		return http.StatusConflict, "queue_closed", "the queue is not accepting entries"
	case errors.Is(err, store.ErrSlotInPast):
		return http.StatusBadRequest, "slot_in_past", "reservation slot must be in the future"
	case errors.Is(err, store.ErrAccessDenied):
		return http.StatusForbidden, "access_denied", "access denied"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
