// internal/sender/whatsapp.go
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/scalixity/campaign-backend/internal/config"
	apperrors "github.com/scalixity/campaign-backend/internal/errors"
)

// Client talks to the WhatsApp Cloud API. One client is shared by all
// campaigns; its rate limiter caps outbound requests per account, on top of
// the per-campaign pacing applied by the dispatcher.
//
// Send reports delivery failures as (false, nil): the dispatcher counts them
// and keeps going. Only credential-level rejections (401/403) come back as
// errors, because every later send would fail the same way.
type Client struct {
	cfg     config.WhatsApp
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(cfg config.WhatsApp, log zerolog.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, apperrors.NewFatalConfiguration("ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log.With().Str("component", "whatsapp").Logger(),
	}, nil
}

type outboundMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type,omitempty"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textBody        `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type templatePayload struct {
	Name     string           `json:"name"`
	Language templateLanguage `json:"language"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

// Send delivers message as a plain text body.
func (c *Client) Send(ctx context.Context, phone, message string) (bool, error) {
	return c.post(ctx, outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               phone,
		Type:             "text",
		Text:             &textBody{Body: message},
	})
}

// SendTemplate delivers a pre-approved template by name; the provider renders
// it server-side. lang defaults to en_US.
func (c *Client) SendTemplate(ctx context.Context, phone, name, lang string) (bool, error) {
	if lang == "" {
		lang = "en_US"
	}
	return c.post(ctx, outboundMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "template",
		Template:         &templatePayload{Name: name, Language: templateLanguage{Code: lang}},
	})
}

func (c *Client) post(ctx context.Context, msg outboundMessage) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("encoding message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, apperrors.NewFatalConfiguration("building provider request: " + err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// A network failure on a single send is an ordinary delivery
		// failure, not fatal to the campaign.
		c.log.Error().Err(err).Str("to", msg.To).Msg("send request failed")
		return false, nil
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusOK:
		c.log.Info().Str("to", msg.To).Str("type", msg.Type).Msg("message sent")
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, apperrors.NewFatalConfiguration(fmt.Sprintf("provider rejected credentials (%d): %s", resp.StatusCode, respBody))
	default:
		c.log.Error().Int("status", resp.StatusCode).Str("to", msg.To).Bytes("response", respBody).Msg("send rejected")
		return false, nil
	}
}

// VerifyAuth probes the phone-number endpoint with the configured token and
// returns the provider's status code and raw response.
func (c *Client) VerifyAuth(ctx context.Context) (int, string, error) {
	url := fmt.Sprintf("%s/%s", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	return resp.StatusCode, string(body), nil
}

// TemplateSender adapts a Client into the dispatcher's sender port for
// campaigns that deliver a provider-side template. The produced body is
// ignored; the provider renders the template itself.
type TemplateSender struct {
	Client *Client
	Name   string
	Lang   string
}

func (s TemplateSender) Send(ctx context.Context, phone, _ string) (bool, error) {
	return s.Client.SendTemplate(ctx, phone, s.Name, s.Lang)
}
