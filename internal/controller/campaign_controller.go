// internal/controller/campaign_controller.go
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/scalixity/campaign-backend/internal/errors"
	"github.com/scalixity/campaign-backend/internal/ingest"
	"github.com/scalixity/campaign-backend/internal/ledger"
	"github.com/scalixity/campaign-backend/internal/model"
	"github.com/scalixity/campaign-backend/internal/sender"
	"github.com/scalixity/campaign-backend/internal/service"
)

const maxUploadBytes = 32 << 20

// CampaignController exposes the dispatch engine and ledger over HTTP.
type CampaignController struct {
	Engine    *service.Engine
	Ledger    *ledger.Ledger
	WhatsApp  *sender.Client // nil when provider credentials are absent
	UploadDir string
	Log       zerolog.Logger

	mu   sync.Mutex
	runs map[string]*service.Run
}

func NewCampaignController(engine *service.Engine, lgr *ledger.Ledger, wa *sender.Client, uploadDir string, log zerolog.Logger) *CampaignController {
	return &CampaignController{
		Engine:    engine,
		Ledger:    lgr,
		WhatsApp:  wa,
		UploadDir: uploadDir,
		Log:       log.With().Str("component", "http").Logger(),
		runs:      make(map[string]*service.Run),
	}
}

// UploadCampaign accepts a multipart recipients CSV plus message settings and
// starts a campaign in the background. Form fields:
//
//	file          recipients CSV (required)
//	template      {{placeholder}} message template
//	template_name provider-side template name (used when template is empty)
//	language      provider template language code
//	phone_column  CSV header holding the number (default "Mobile")
//	campaign_key  explicit campaign key (default: filename, else generated)
func (c *CampaignController) UploadCampaign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	c.saveUpload(hdr.Filename, data)

	recipients, err := ingest.ParseRecipients(bytes.NewReader(data), ingest.Options{
		PhoneColumn: r.FormValue("phone_column"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := r.FormValue("campaign_key")
	if key == "" {
		key = hdr.Filename
	}
	if key == "" {
		key = uuid.NewString()
	}

	engine, producer, err := c.campaignPlan(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The dispatch outlives this request, so it must not inherit the
	// request context.
	run, err := engine.Submit(context.Background(), key, service.NewSliceSource(recipients), producer)
	if err != nil {
		if apperrors.IsExists(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	c.mu.Lock()
	c.runs[key] = run
	c.mu.Unlock()

	c.Log.Info().Str("campaign", key).Int("recipients", len(recipients)).Msg("campaign started")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":      fmt.Sprintf("CSV file uploaded and campaign %q started", key),
		"campaign_key": key,
		"status":       model.StatusProcessing,
		"total":        len(recipients),
	})
}

// campaignPlan picks the message-production strategy and sender for the
// upload: an inline {{placeholder}} template, or a provider-side template by
// name.
func (c *CampaignController) campaignPlan(r *http.Request) (*service.Engine, service.MessageProducer, error) {
	template := r.FormValue("template")
	templateName := r.FormValue("template_name")

	switch {
	case template != "":
		return c.Engine, service.TemplateProducer{Template: template}, nil
	case templateName != "":
		if c.WhatsApp == nil {
			return nil, nil, fmt.Errorf("provider templates require configured whatsapp credentials")
		}
		engine := c.Engine.WithSender(sender.TemplateSender{
			Client: c.WhatsApp,
			Name:   templateName,
			Lang:   r.FormValue("language"),
		})
		return engine, service.StaticProducer{Body: "template " + templateName}, nil
	default:
		return nil, nil, fmt.Errorf("either template or template_name is required")
	}
}

// saveUpload keeps a copy of the received file, matching the original
// service's uploads directory. Failure to persist is logged, not fatal.
func (c *CampaignController) saveUpload(filename string, data []byte) {
	if c.UploadDir == "" || filename == "" {
		return
	}
	if err := os.MkdirAll(c.UploadDir, 0o755); err != nil {
		c.Log.Warn().Err(err).Msg("create upload dir")
		return
	}
	path := filepath.Join(c.UploadDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.Log.Warn().Err(err).Str("path", path).Msg("persist upload")
	}
}

// GetCampaign returns the live counters for one campaign.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	view, err := c.Ledger.Snapshot(key, false)
	if err != nil {
		c.writeNotFound(w)
		return
	}

	successRate := "0%"
	if view.Processed > 0 {
		successRate = fmt.Sprintf("%.1f%%", float64(view.Successful)/float64(view.Processed)*100)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       view.Status,
		"total":        view.Total,
		"processed":    view.Processed,
		"successful":   view.Successful,
		"failed":       view.Failed,
		"success_rate": successRate,
		"error":        view.Error,
	})
}

// GetCampaignOutcomes returns the full per-recipient outcome history.
func (c *CampaignController) GetCampaignOutcomes(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	view, err := c.Ledger.Snapshot(key, true)
	if err != nil {
		c.writeNotFound(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// ListCampaigns returns every known campaign without outcome histories.
func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": c.Ledger.List(),
	})
}

// CancelCampaign asks a running dispatch to stop.
func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	c.mu.Lock()
	run := c.runs[key]
	c.mu.Unlock()
	if run == nil {
		c.writeNotFound(w)
		return
	}
	run.Cancel()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_key": key,
		"status":       "cancelling",
	})
}

// TestAuth probes the provider with the configured credentials.
func (c *CampaignController) TestAuth(w http.ResponseWriter, r *http.Request) {
	if c.WhatsApp == nil {
		http.Error(w, "whatsapp credentials are not configured", http.StatusServiceUnavailable)
		return
	}
	code, body, err := c.WhatsApp.VerifyAuth(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status_code": code,
		"response":    json.RawMessage(rawOrQuoted(body)),
	})
}

// rawOrQuoted passes provider JSON through untouched and quotes anything else.
func rawOrQuoted(body string) []byte {
	if json.Valid([]byte(body)) {
		return []byte(body)
	}
	quoted, _ := json.Marshal(body)
	return quoted
}

func (c *CampaignController) writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "not_found",
		"message": "Campaign not found",
	})
}
