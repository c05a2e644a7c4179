package connections

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

func createError(err string, status int) *genericErrorResponse {
	return &genericErrorResponse{
		Error:      err,
		StatusCode: status,
	}
}

type genericErrorResponse struct {
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *genericErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

type healthResponse struct {
	TenantID           string     `json:"tenant_id"`
	Provider           string     `json:"provider"`
	Status             string     `json:"status"`
	LastCheck          time.Time  `json:"last_check"`
	LastSuccessfulCall *time.Time `json:"last_successful_call,omitempty"`
	FailureCount       int        `json:"failure_count"`
	LastErrorMessage   *string    `json:"last_error_message,omitempty"`
	NextCheckDue       time.Time  `json:"next_check_due"`
}

type statusResponse struct {
	Provider       string `json:"provider"`
	Connected      bool   `json:"connected"`
	ReauthRequired bool   `json:"reauth_required"`
}

// refreshResponse deliberately carries expiry metadata only, token
// material never leaves the service
type refreshResponse struct {
	Provider         string    `json:"provider"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
