package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mongoadapter "github.com/robertarktes/tennis-court-reservations/internal/adapters/mongo"
	"github.com/robertarktes/tennis-court-reservations/internal/adapters/postgres"
	redisadapter "github.com/robertarktes/tennis-court-reservations/internal/adapters/redis"
	"github.com/robertarktes/tennis-court-reservations/internal/auth"
	"github.com/robertarktes/tennis-court-reservations/internal/booking"
	"github.com/robertarktes/tennis-court-reservations/internal/config"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/idempotency"
	"github.com/shopspring/decimal"
)

const slotHoldTTL = 10 * time.Second

type Handlers struct {
	cfg    *config.Config
	repo   *postgres.Repository
	svc    *booking.Service
	tokens *auth.TokenManager
	redis  *redisadapter.Cache
	idemp  *idempotency.Idempotency
	audit  *mongoadapter.AuditLogger
}

func NewHandlers(cfg *config.Config, repo *postgres.Repository, svc *booking.Service, tokens *auth.TokenManager, redis *redisadapter.Cache, idemp *idempotency.Idempotency, audit *mongoadapter.AuditLogger) *Handlers {
	return &Handlers{
		cfg:    cfg,
		repo:   repo,
		svc:    svc,
		tokens: tokens,
		redis:  redis,
		idemp:  idemp,
		audit:  audit,
	}
}

type courtView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HourlyRate  string    `json:"hourlyRate"`
}

func courtViewOf(c *domain.TennisCourt) courtView {
	return courtView{ID: c.ID, Name: c.Name, Description: c.Description, HourlyRate: c.HourlyRate.String()}
}

type userView struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	PhoneNumber      string    `json:"phoneNumber"`
	RegistrationDate time.Time `json:"registrationDate"`
}

func userViewOf(u *domain.User) userView {
	return userView{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		PhoneNumber:      u.PhoneNumber,
		RegistrationDate: u.RegistrationDate,
	}
}

// Register creates a user account with player role credentials.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	user, err := domain.NewUser(req.FirstName, req.LastName, req.Email, req.PhoneNumber, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	creds, err := domain.NewUserCredentials(user.ID, hash, domain.RoleUser, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.CreateUser(r.Context(), user, creds); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userViewOf(user))
}

// Login checks credentials and returns a bearer token. Failed attempts
// count toward a temporary lockout.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	user, creds, err := h.repo.GetCredentialsByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized))
		return
	}

	now := time.Now()
	if creds.IsLocked(now) {
		writeError(w, fmt.Errorf("%w: account is temporarily locked", domain.ErrUnauthorized))
		return
	}
	if !auth.VerifyPassword(creds.PasswordHash, req.Password) {
		creds.RecordFailedAttempt(now)
		h.repo.SaveCredentials(r.Context(), creds)
		writeError(w, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized))
		return
	}

	creds.RecordSuccessfulLogin(now)
	if err := h.repo.SaveCredentials(r.Context(), creds); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.CreateAccessToken(user.ID.String(), creds.Role, user.Email, auth.AccessTokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

type reservationRequest struct {
	CourtID   uuid.UUID `json:"courtId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// CreateReservation books a slot for the authenticated user. A short
// redis hold on the window absorbs racing duplicates before the
// database transaction settles the outcome.
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Body)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	held, err := h.redis.SetSlotHold(r.Context(), req.CourtID, req.StartTime, identity.UserID.String(), slotHoldTTL)
	if err == nil && !held {
		writeError(w, fmt.Errorf("%w: time slot is not available", domain.ErrConflict))
		return
	}
	defer h.redis.ReleaseSlotHold(r.Context(), req.CourtID, req.StartTime)

	view, err := h.svc.CreateReservation(r.Context(), req.CourtID, identity.UserID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}

	data, _ := json.Marshal(view)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	// The reservation is already committed; a failed store only loses
	// replay protection for this key.
	if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Body: data}); err != nil {
		loggerFrom(r.Context()).WithField("idempotency_key", key).Error("failed to store idempotent response: ", err)
	}
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	view, err := h.svc.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !identity.IsAdmin() && view.UserID != identity.UserID {
		writeError(w, fmt.Errorf("%w: not allowed to view this reservation", domain.ErrForbidden))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListReservations returns everything for admins, own bookings otherwise.
func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	views, err := h.svc.ListReservations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !identity.IsAdmin() {
		own := make([]booking.ReservationView, 0, len(views))
		for _, v := range views {
			if v.UserID == identity.UserID {
				own = append(own, v)
			}
		}
		views = own
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	current, err := h.svc.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !identity.IsAdmin() && current.UserID != identity.UserID {
		writeError(w, fmt.Errorf("%w: not allowed to modify this reservation", domain.ErrForbidden))
		return
	}

	view, err := h.svc.UpdateReservation(r.Context(), id, req.CourtID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	view, err := h.svc.CancelReservation(r.Context(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.svc.CompleteReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	if err := h.svc.DeleteReservation(r.Context(), id, identity.UserID, identity.IsAdmin()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAvailability reports whether a court window is free, start and
// end as RFC 3339 query parameters.
func (h *Handlers) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	courtID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid start time", domain.ErrInvalidInput))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid end time", domain.ErrInvalidInput))
		return
	}
	var excludeID *uuid.UUID
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid exclude id", domain.ErrInvalidInput))
			return
		}
		excludeID = &id
	}

	available, err := h.svc.CheckAvailability(r.Context(), courtID, start, end, excludeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handlers) CreateCourt(w http.ResponseWriter, r *http.Request) {
	court, err := decodeCourt(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.CreateCourt(r.Context(), court); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, courtViewOf(court))
}

func (h *Handlers) UpdateCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	court, err := h.repo.GetCourt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := decodeCourt(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := court.Update(updated.Name, updated.HourlyRate, updated.Description); err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.UpdateCourt(r.Context(), court); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courtViewOf(court))
}

func (h *Handlers) DeleteCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.DeleteCourt(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetCourt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	court, err := h.repo.GetCourt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courtViewOf(court))
}

func (h *Handlers) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.repo.ListCourts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]courtView, 0, len(courts))
	for i := range courts {
		views = append(views, courtViewOf(&courts[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) ListCourtReservations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := h.svc.ListReservationsForCourt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsAdmin() && identity.UserID != id {
		writeError(w, fmt.Errorf("%w: not allowed to view this user", domain.ErrForbidden))
		return
	}

	user, err := h.repo.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViewOf(user))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, userViewOf(&users[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsAdmin() && identity.UserID != id {
		writeError(w, fmt.Errorf("%w: not allowed to modify this user", domain.ErrForbidden))
		return
	}

	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	user, err := h.repo.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := user.Update(req.FirstName, req.LastName, req.Email, req.PhoneNumber); err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.UpdateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViewOf(user))
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserAuditTrail returns the latest audit entries for a user.
func (h *Handlers) UserAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	logs, err := h.audit.ListByUser(r.Context(), id, 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", domain.ErrInvalidInput)
	}
	return id, nil
}

func decodeCourt(r *http.Request) (*domain.TennisCourt, error) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		HourlyRate  string `json:"hourlyRate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hourly rate", domain.ErrInvalidInput)
	}
	return domain.NewTennisCourt(req.Name, rate, req.Description)
}
