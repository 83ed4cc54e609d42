package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"replyping/internal/domain"
)

const graphAPIVersion = "v21.0"

// MetaConfig holds Graph API credentials. Empty values leave the matching
// channel unconfigured.
type MetaConfig struct {
	BaseURL               string // override for tests; default Graph API host
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	InstagramAccessToken  string
	InstagramPageID       string
}

// Meta sends messages through the WhatsApp Cloud API and the Instagram Send
// API.
type Meta struct {
	cfg    MetaConfig
	client *http.Client
	logger *zap.SugaredLogger
}

func NewMeta(cfg MetaConfig, l *zap.SugaredLogger) *Meta {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com/" + graphAPIVersion
	}
	return &Meta{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: l,
	}
}

func (m *Meta) IsConfigured(ct domain.ChannelType) bool {
	switch ct {
	case domain.ChannelWhatsApp:
		return m.cfg.WhatsAppAccessToken != "" && m.cfg.WhatsAppPhoneNumberID != ""
	case domain.ChannelInstagram:
		return m.cfg.InstagramAccessToken != ""
	}
	return false
}

func (m *Meta) Send(ctx context.Context, ct domain.ChannelType, recipient, text string) (*SendResult, error) {
	switch ct {
	case domain.ChannelWhatsApp:
		return m.sendWhatsApp(ctx, recipient, text)
	case domain.ChannelInstagram:
		return m.sendInstagram(ctx, recipient, text)
	}
	return nil, errors.Wrapf(domain.ErrValidation, "unknown channel type %q", ct)
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (m *Meta) sendWhatsApp(ctx context.Context, recipient, text string) (*SendResult, error) {
	if !m.IsConfigured(domain.ChannelWhatsApp) {
		return nil, errors.Wrap(domain.ErrChannelUnavailable, "whatsapp")
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                recipient,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	var resp struct {
		graphError
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	url := m.cfg.BaseURL + "/" + m.cfg.WhatsAppPhoneNumberID + "/messages"
	if err := m.post(ctx, url, m.cfg.WhatsAppAccessToken, payload, &resp); err != nil {
		return nil, err
	}

	var id string
	if len(resp.Messages) > 0 {
		id = resp.Messages[0].ID
	}
	m.logger.Infow("whatsapp message sent", "recipient", recipient, "messageID", id)
	return &SendResult{MessageID: id}, nil
}

func (m *Meta) sendInstagram(ctx context.Context, recipient, text string) (*SendResult, error) {
	if !m.IsConfigured(domain.ChannelInstagram) {
		return nil, errors.Wrap(domain.ErrChannelUnavailable, "instagram")
	}

	// The Send API addresses a page when one is configured, otherwise "me".
	endpoint := m.cfg.BaseURL + "/me/messages"
	if m.cfg.InstagramPageID != "" {
		endpoint = m.cfg.BaseURL + "/" + m.cfg.InstagramPageID + "/messages"
	}

	payload := map[string]any{
		"recipient": map[string]string{"id": recipient},
		"message":   map[string]string{"text": text},
	}
	var resp struct {
		graphError
		MessageID string `json:"message_id"`
	}
	if err := m.post(ctx, endpoint, m.cfg.InstagramAccessToken, payload, &resp); err != nil {
		return nil, err
	}

	m.logger.Infow("instagram message sent", "recipient", recipient, "messageID", resp.MessageID)
	return &SendResult{MessageID: resp.MessageID}, nil
}

func (m *Meta) post(ctx context.Context, url, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed building request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(domain.ErrChannelSend, err.Error())
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(domain.ErrChannelSend, "failed decoding response")
	}

	if resp.StatusCode >= 400 {
		msg := "failed to send message"
		if ge, ok := out.(interface{ errMessage() string }); ok && ge.errMessage() != "" {
			msg = ge.errMessage()
		}
		m.logger.Errorw("graph api send failed", "status", resp.StatusCode, "err", msg)
		return errors.Wrap(domain.ErrChannelSend, msg)
	}
	return nil
}

func (g graphError) errMessage() string { return g.Error.Message }
