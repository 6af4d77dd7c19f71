package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"selfserve-cloud-portal/internal/audit"
	"selfserve-cloud-portal/internal/dispatch"
	"selfserve-cloud-portal/internal/identity/service"
	"selfserve-cloud-portal/internal/provider"
	"selfserve-cloud-portal/internal/session"
)

// AuthHandler handles registration, login, and logout.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// CredentialsRequest is the request body for register and login.
type CredentialsRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	SessionToken string    `json:"session_token"`
	Name         string    `json:"name"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.auth.Register(r.Context(), req.Name, req.Secret); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			BadRequest(w, "Name and secret are required")
		case errors.Is(err, service.ErrDuplicateIdentity):
			Conflict(w, "Name is already taken")
		default:
			InternalServerError(w, "Registration failed")
		}
		return
	}
	WriteJSONCreated(w, map[string]string{"name": req.Name})
}

// Login handles POST /api/v1/auth/login. Returns an opaque session token the
// client presents as a bearer token on subsequent requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	sess, err := h.auth.Login(r.Context(), req.Name, req.Secret)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid name or secret")
			return
		}
		InternalServerError(w, "Login failed")
		return
	}
	WriteJSONOK(w, LoginResponse{
		SessionToken: sess.ID(),
		Name:         req.Name,
		ExpiresAt:    sess.ExpiresAt(),
	})
}

// Logout handles POST /api/v1/auth/logout. Ends the bearer session; unknown
// tokens are a no-op so logout is idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := extractBearerToken(r)
	if !ok {
		Unauthorized(w, "Authorization header required")
		return
	}
	h.auth.Logout(token)
	WriteNoContent(w)
}

// DispatchHandler routes resource actions to provider backends.
type DispatchHandler struct {
	dispatch *dispatch.Service
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(d *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: d}
}

// Create handles POST /api/v1/providers/{provider}/resources. The body is
// optional; absent parameters fall back to provider defaults.
func (h *DispatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params provider.CreateParams
	if err := decodeOptionalJSONBody(r, &params); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}
	name := provider.Name(chi.URLParam(r, "provider"))
	res, err := h.dispatch.Perform(r.Context(), SessionFromContext(r.Context()), name, dispatch.ActionCreate, params)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	WriteJSONCreated(w, res.Created)
}

// List handles GET /api/v1/providers/{provider}/resources.
func (h *DispatchHandler) List(w http.ResponseWriter, r *http.Request) {
	name := provider.Name(chi.URLParam(r, "provider"))
	res, err := h.dispatch.Perform(r.Context(), SessionFromContext(r.Context()), name, dispatch.ActionList, provider.CreateParams{})
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	WriteJSONOK(w, map[string][]provider.Resource{"resources": res.Listed})
}

func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		Unauthorized(w, "Not authenticated")
	case errors.Is(err, provider.ErrUnknownProvider):
		NotFound(w, "Unknown provider")
	case errors.Is(err, dispatch.ErrProviderTimeout):
		GatewayTimeout(w, "Provider did not respond in time")
	case errors.Is(err, dispatch.ErrProviderFailure):
		BadGateway(w, "Provider call failed")
	default:
		InternalServerError(w, "Request failed")
	}
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	trail *audit.Recorder
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(trail *audit.Recorder) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// AuditRecordResponse is one audit trail entry in API responses.
type AuditRecordResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /api/v1/audit. Records come back in insertion order.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.trail.List(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to read the audit trail")
		return
	}
	out := make([]AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, AuditRecordResponse{
			ID:        rec.ID,
			Actor:     rec.Actor,
			Action:    rec.Action,
			Provider:  rec.Provider,
			CreatedAt: rec.CreatedAt,
		})
	}
	WriteJSONOK(w, map[string][]AuditRecordResponse{"records": out})
}

// MockMetrics handles GET /api/v1/metrics/mock with a fresh utilization sample.
func MockMetrics(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, provider.SampleMetrics())
}

// decodeOptionalJSONBody decodes a JSON body into v, treating an empty body as
// the zero value.
func decodeOptionalJSONBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
