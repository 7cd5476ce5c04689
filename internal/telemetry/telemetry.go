// Package telemetry posts anonymous install reports. Reporting is
// strictly fire-and-forget: failures are logged at debug level and never
// influence the installation outcome.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eim-labs/eim/internal/branding"
)

// Event is one install report.
type Event struct {
	AppVersion string `json:"appVersion"`
	IDFVersion string `json:"idfVersion"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Success    bool   `json:"success"`
}

// Reporter posts events to the branded endpoint. A zero URL disables it.
type Reporter struct {
	URL    string
	Client *http.Client
	Log    *log.Logger
}

// New returns a Reporter wired to the branding telemetry endpoint.
func New(logger *log.Logger) *Reporter {
	return &Reporter{
		URL:    branding.TelemetryURL(),
		Client: &http.Client{Timeout: 5 * time.Second},
		Log:    logger,
	}
}

// ReportInstall posts the event, swallowing every failure.
func (r *Reporter) ReportInstall(ctx context.Context, appVersion, idfVersion string, success bool) {
	if r == nil || r.URL == "" {
		return
	}
	body, err := json.Marshal(Event{
		AppVersion: appVersion,
		IDFVersion: idfVersion,
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Success:    success,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		r.debugf("telemetry request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		r.debugf("telemetry post failed", "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.debugf("telemetry post rejected", "status", resp.StatusCode)
	}
}

func (r *Reporter) debugf(msg string, kv ...any) {
	if r.Log != nil {
		r.Log.Debug(msg, kv...)
	}
}
