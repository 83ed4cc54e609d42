// Package api is the HTTP read/action surface consumed by the presentation
// layer. Authentication happens upstream; the fronting proxy injects the
// authenticated account into the X-User-ID header.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"replyping/internal/domain"
	"replyping/internal/notify"
	"replyping/internal/plan"
	"replyping/internal/rules"
	"replyping/internal/store"
	"replyping/internal/todo"
	"replyping/internal/webhook"
)

type Handler struct {
	store    store.Store
	todos    *todo.Service
	rules    *rules.Service
	gate     *plan.Gate
	emitter  *notify.Emitter
	webhooks *webhook.Handler
	logger   *zap.SugaredLogger
}

func NewHandler(s store.Store, todos *todo.Service, rulesSvc *rules.Service, gate *plan.Gate, emitter *notify.Emitter, webhooks *webhook.Handler, l *zap.SugaredLogger) *Handler {
	return &Handler{
		store:    s,
		todos:    todos,
		rules:    rulesSvc,
		gate:     gate,
		emitter:  emitter,
		webhooks: webhooks,
		logger:   l,
	}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Called by Meta, no user context.
	r.Mount("/webhooks", h.webhooks.Routes())
	r.Post("/api/dev/simulate", h.webhooks.Simulate)
	r.Post("/api/dev/register", h.register)

	r.Route("/api", func(r chi.Router) {
		r.Route("/todos", func(r chi.Router) {
			r.Get("/", h.listTodos)
			r.Get("/stats", h.todoStats)
			r.Get("/channel-status", h.channelStatus)
			r.Get("/{id}/messages", h.todoMessages)
			r.Put("/{id}/done", h.markDone)
			r.Put("/{id}/snooze", h.snooze)
			r.Put("/{id}/unreply", h.unreply)
			r.Put("/{id}/note", h.setNote)
			r.Post("/{id}/reply", h.reply)
		})
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.getRules)
			r.Put("/", h.putRules)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.listNotifications)
			r.Put("/read-all", h.markAllRead)
			r.Put("/telegram", h.linkTelegram)
			r.Put("/{id}/read", h.markRead)
		})
		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", h.listPlans)
			r.Get("/status", h.billingStatus)
			r.Post("/demo-upgrade", h.demoUpgrade)
		})
	})

	return r
}

// userID extracts the authenticated account injected by the auth proxy.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondWithError(w, http.StatusUnauthorized, "Missing user")
		return
	}

	var status *domain.TodoStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.TodoStatus(s)
		if st == domain.StatusUnreplied || st == domain.StatusSnoozed || st == domain.StatusDone {
			status = &st
		}
	}

	todos, err := h.todos.List(r.Context(), uid, status)
	if err != nil {
		h.fail(w, err, "failed listing todos")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

func (h *Handler) todoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.todos.Stats(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err, "failed computing stats")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) channelStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.todos.ChannelStatus())
}

func (h *Handler) todoMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.todos.Messages(r.Context(), userID(r), chi.URLParam(r, "id"), 100)
	if err != nil {
		h.fail(w, err, "failed listing messages")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) markDone(w http.ResponseWriter, r *http.Request) {
	t, err := h.todos.MarkDone(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "failed marking done")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"todo": t})
}

type snoozeRequest struct {
	// Minutes is a count or the literal "eod" for end of day.
	Minutes json.RawMessage `json:"minutes"`
}

func (h *Handler) snooze(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var minutes int
	var eod bool
	var s string
	if err := json.Unmarshal(req.Minutes, &s); err == nil {
		eod = s == "eod"
	} else if err := json.Unmarshal(req.Minutes, &minutes); err != nil {
		respondWithError(w, http.StatusBadRequest, "minutes must be a number or \"eod\"")
		return
	}

	t, err := h.todos.Snooze(r.Context(), userID(r), chi.URLParam(r, "id"), minutes, eod)
	if err != nil {
		h.fail(w, err, "failed snoozing")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"todo": t})
}

func (h *Handler) unreply(w http.ResponseWriter, r *http.Request) {
	t, err := h.todos.Unreply(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "failed moving to unreplied")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"todo": t})
}

func (h *Handler) setNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := h.todos.SetNote(r.Context(), userID(r), chi.URLParam(r, "id"), req.Note)
	if err != nil {
		h.fail(w, err, "failed saving note")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"todo": t})
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.todos.Reply(r.Context(), userID(r), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		h.fail(w, err, "failed sending reply")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"todo":       res.Todo,
		"sent":       true,
		"message_id": res.MessageID,
	})
}

func (h *Handler) getRules(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.Get(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err, "failed fetching rules")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"rules": rule})
}

func (h *Handler) putRules(w http.ResponseWriter, r *http.Request) {
	var upd rules.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rule, err := h.rules.Set(r.Context(), userID(r), upd)
	if err != nil {
		h.fail(w, err, "failed updating rules")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"rules": rule})
}

// register creates an account directly. Stands in for the auth collaborator
// during development and demos.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	u := &domain.User{Email: req.Email, Name: req.Name}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		h.fail(w, err, "failed creating user")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (h *Handler) linkTelegram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == 0 {
		respondWithError(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	if err := h.emitter.LinkTelegram(r.Context(), userID(r), req.ChatID); err != nil {
		h.fail(w, err, "failed linking telegram")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	feed, err := h.emitter.List(r.Context(), userID(r), 50)
	if err != nil {
		h.fail(w, err, "failed fetching notifications")
		return
	}
	respondWithJSON(w, http.StatusOK, feed)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.emitter.MarkRead(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, "failed marking notification read")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.emitter.MarkAllRead(r.Context(), userID(r)); err != nil {
		h.fail(w, err, "failed marking notifications read")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"plans": plan.All()})
}

func (h *Handler) billingStatus(w http.ResponseWriter, r *http.Request) {
	usage, err := h.gate.Status(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err, "failed fetching billing status")
		return
	}
	respondWithJSON(w, http.StatusOK, usage)
}

func (h *Handler) demoUpgrade(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	usage, err := h.gate.Status(r.Context(), uid)
	if err != nil {
		h.fail(w, err, "failed fetching plan")
		return
	}

	next := domain.PlanPremium
	msg := "Upgraded to Premium! (Demo mode)"
	if usage.Plan == domain.PlanPremium {
		next = domain.PlanFree
		msg = "Downgraded to Free plan"
	}
	if err := h.gate.SetPlan(r.Context(), uid, next); err != nil {
		h.fail(w, err, "failed switching plan")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"plan": string(next), "message": msg})
}

// fail maps the error taxonomy onto status codes.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrFeatureGated):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		respondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrChannelUnavailable):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":        err.Error(),
			"needs_config": true,
		})
	case errors.Is(err, domain.ErrChannelSend):
		respondWithJSON(w, http.StatusBadGateway, map[string]any{
			"error":     err.Error(),
			"api_error": true,
		})
	default:
		h.logger.Errorw(msg, "err", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
