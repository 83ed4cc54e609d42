// Package webhook is the inbound ingestion boundary: it normalizes Meta
// webhook payloads (and dev simulations) into the todo pipeline.
package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"replyping/internal/domain"
	"replyping/internal/store"
	"replyping/internal/todo"
)

type Handler struct {
	todos       *todo.Service
	store       store.Store
	verifyToken string
	logger      *zap.SugaredLogger
}

func NewHandler(todos *todo.Service, s store.Store, verifyToken string, l *zap.SugaredLogger) *Handler {
	return &Handler{todos: todos, store: s, verifyToken: verifyToken, logger: l}
}

// Routes returns the webhook router, mounted without auth: Meta calls these.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/instagram", h.verify)
	r.Post("/instagram", h.handleInstagram)
	r.Get("/whatsapp", h.verify)
	r.Post("/whatsapp", h.handleWhatsApp)
	return r
}

// verify answers Meta's subscription handshake with the challenge.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		h.logger.Infow("webhook verified", "path", r.URL.Path)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	h.logger.Warnw("webhook verification failed", "path", r.URL.Path)
	http.Error(w, "Verification failed", http.StatusForbidden)
}

type instagramPayload struct {
	Entry []struct {
		Messaging []struct {
			Sender struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"sender"`
			Message *struct {
				Text string `json:"text"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

func (h *Handler) handleInstagram(w http.ResponseWriter, r *http.Request) {
	var payload instagramPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Entry) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "No entry data"})
		return
	}

	user, err := h.store.FirstUserForChannel(r.Context(), domain.ChannelInstagram)
	if err != nil {
		// No account listens on this channel yet; acknowledge so Meta stops
		// retrying.
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "processed": 0})
		return
	}

	processed := 0
	for _, e := range payload.Entry {
		for _, m := range e.Messaging {
			if m.Message == nil {
				continue
			}
			name := m.Sender.Name
			if name == "" {
				name = "IG User " + shortID(m.Sender.ID)
			}
			handle := m.Sender.ID
			if handle == "" {
				handle = "unknown"
			}
			content := m.Message.Text
			if content == "" {
				content = "[Media]"
			}

			if _, err := h.todos.IngestInbound(r.Context(), user.ID, domain.ChannelInstagram, name, handle, content, m.Sender.ID); err != nil {
				h.logger.Errorw("instagram ingest failed", "user", user.ID, "err", err)
				continue
			}
			processed++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "processed": processed})
}

type whatsAppPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (h *Handler) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	var payload whatsAppPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Entry) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "No entry data"})
		return
	}

	user, err := h.store.FirstUserForChannel(r.Context(), domain.ChannelWhatsApp)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "processed": 0})
		return
	}

	processed := 0
	for _, e := range payload.Entry {
		for _, change := range e.Changes {
			v := change.Value
			for _, m := range v.Messages {
				name := "+" + m.From
				for _, c := range v.Contacts {
					if c.WaID == m.From && c.Profile.Name != "" {
						name = c.Profile.Name
					}
				}

				content := "[Message]"
				switch {
				case m.Type == "text" && m.Text != nil:
					content = m.Text.Body
				case m.Type == "image":
					content = "[Image]"
				case m.Type == "video":
					content = "[Video]"
				case m.Type == "audio":
					content = "[Audio]"
				case m.Type == "document":
					content = "[Document]"
				}

				handle := m.From
				if handle == "" {
					handle = "unknown"
				}

				if _, err := h.todos.IngestInbound(r.Context(), user.ID, domain.ChannelWhatsApp, name, handle, content, m.From); err != nil {
					h.logger.Errorw("whatsapp ingest failed", "user", user.ID, "err", err)
					continue
				}
				processed++
			}
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "processed": processed})
}

type simulateRequest struct {
	UserID        string `json:"user_id"`
	Channel       string `json:"channel"`
	ContactName   string `json:"contact_name"`
	ContactHandle string `json:"contact_handle"`
	Message       string `json:"message"`
	Direction     string `json:"direction"`
}

// Simulate injects a test message as if it arrived from a channel. Meant for
// dev panels; direction defaults to inbound.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.Channel == "" || req.Message == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "channel and message are required"})
		return
	}

	ct := domain.ChannelType(req.Channel)
	userID := req.UserID
	if userID == "" {
		ids, err := h.store.ListUserIDs(r.Context())
		if err != nil || len(ids) == 0 {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "No users found. Register first."})
			return
		}
		userID = ids[0]
	}

	name := req.ContactName
	if name == "" {
		if ct == domain.ChannelInstagram {
			name = "test_ig_user"
		} else {
			name = "+15551234567"
		}
	}
	handle := req.ContactHandle
	if handle == "" {
		handle = name
	}

	var result *todo.IngestResult
	var err error
	if req.Direction == string(domain.DirectionOutbound) {
		result, err = h.todos.IngestOutbound(r.Context(), userID, ct, handle, req.Message)
	} else {
		result, err = h.todos.IngestInbound(r.Context(), userID, ct, name, handle, req.Message, "")
	}
	if err != nil {
		h.logger.Errorw("simulate failed", "err", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Simulation failed"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "result": simulateView(result)})
}

func simulateView(res *todo.IngestResult) map[string]any {
	if res == nil {
		return nil
	}
	out := map[string]any{
		"conversation_id": res.Conversation.ID,
		"message_id":      res.MessageID,
		"limit_reached":   res.LimitReached,
	}
	if res.Todo != nil {
		out["todo_id"] = res.Todo.ID
	}
	return out
}

func shortID(id string) string {
	if id == "" {
		return "unknown"
	}
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
