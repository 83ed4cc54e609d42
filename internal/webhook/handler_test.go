package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"replyping/internal/channel"
	"replyping/internal/domain"
	"replyping/internal/plan"
	"replyping/internal/store"
	"replyping/internal/todo"
)

type noopSender struct{}

func (noopSender) Send(context.Context, domain.ChannelType, string, string) (*channel.SendResult, error) {
	return &channel.SendResult{}, nil
}
func (noopSender) IsConfigured(domain.ChannelType) bool { return true }

func newHandler(t *testing.T) (*Handler, *store.Memory, string) {
	t.Helper()

	st := store.NewMemory()
	clk := clock.NewFake()
	clk.Set(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))

	u := &domain.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, st.CreateUser(context.Background(), u))

	log := zap.NewNop().Sugar()
	todos := todo.NewService(st, plan.NewGate(st, clk), noopSender{}, clk, log)
	return NewHandler(todos, st, "secret-token", log), st, u.ID
}

func connect(t *testing.T, st store.Store, userID string, ct domain.ChannelType) {
	t.Helper()
	_, err := st.EnsureChannel(context.Background(), userID, ct, "test")
	require.NoError(t, err)
}

func TestVerification(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/whatsapp?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	challenge, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "12345", string(challenge))

	resp, err = http.Get(srv.URL + "/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func postJSON(t *testing.T, url, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestInstagramIngest(t *testing.T) {
	h, st, uid := newHandler(t)
	connect(t, st, uid, domain.ChannelInstagram)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := `{"entry":[{"messaging":[{"sender":{"id":"1789","name":"alice_ig"},"message":{"text":"is this available?"}}]}]}`
	out := postJSON(t, srv.URL+"/instagram", body)
	require.Equal(t, float64(1), out["processed"])

	todos, err := st.ListTodos(context.Background(), uid, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, domain.ChannelInstagram, todos[0].ChannelType)
	require.Equal(t, "alice_ig", todos[0].ContactName)
	require.Equal(t, "is this available?", todos[0].LastMessagePreview)
}

func TestInstagramNamelessSenderGetsPlaceholder(t *testing.T) {
	h, st, uid := newHandler(t)
	connect(t, st, uid, domain.ChannelInstagram)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := `{"entry":[{"messaging":[{"sender":{"id":"178901234"},"message":{"text":"hey"}}]}]}`
	postJSON(t, srv.URL+"/instagram", body)

	todos, err := st.ListTodos(context.Background(), uid, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, "IG User 178901", todos[0].ContactName)
}

func TestWhatsAppIngestWithMediaPlaceholder(t *testing.T) {
	h, st, uid := newHandler(t)
	connect(t, st, uid, domain.ChannelWhatsApp)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := `{"entry":[{"changes":[{"value":{
		"messages":[{"from":"15550001","type":"image"}],
		"contacts":[{"wa_id":"15550001","profile":{"name":"Bob"}}]
	}}]}]}`
	out := postJSON(t, srv.URL+"/whatsapp", body)
	require.Equal(t, float64(1), out["processed"])

	todos, err := st.ListTodos(context.Background(), uid, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, "Bob", todos[0].ContactName)
	require.Equal(t, "[Image]", todos[0].LastMessagePreview)
}

func TestNoListeningUserAcknowledges(t *testing.T) {
	h, _, _ := newHandler(t) // no channel connected
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := `{"entry":[{"messaging":[{"sender":{"id":"1"},"message":{"text":"x"}}]}]}`
	out := postJSON(t, srv.URL+"/instagram", body)
	require.Equal(t, float64(0), out["processed"], "ack so Meta stops retrying")
}

func TestSimulateDefaults(t *testing.T) {
	h, st, uid := newHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.Simulate))
	defer srv.Close()

	out := postJSON(t, srv.URL, `{"channel":"whatsapp","message":"test msg"}`)
	require.Equal(t, "ok", out["status"])

	todos, err := st.ListTodos(context.Background(), uid, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, "+15551234567", todos[0].ContactName)
}

func TestSimulateOutboundClosesTodo(t *testing.T) {
	h, st, uid := newHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.Simulate))
	defer srv.Close()

	postJSON(t, srv.URL, `{"channel":"whatsapp","contact_handle":"+1999","message":"inbound"}`)
	postJSON(t, srv.URL, `{"channel":"whatsapp","contact_handle":"+1999","message":"reply","direction":"outbound"}`)

	todos, err := st.ListTodos(context.Background(), uid, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, domain.StatusDone, todos[0].Status)
}
