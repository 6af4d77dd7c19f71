package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"selfserve-cloud-portal/internal/audit"
	auditdomain "selfserve-cloud-portal/internal/audit/domain"
	"selfserve-cloud-portal/internal/dispatch"
	identitydomain "selfserve-cloud-portal/internal/identity/domain"
	"selfserve-cloud-portal/internal/identity/repository"
	"selfserve-cloud-portal/internal/identity/service"
	"selfserve-cloud-portal/internal/provider"
	"selfserve-cloud-portal/internal/security"
	"selfserve-cloud-portal/internal/session"
)

// memIdentityRepo is an in-memory identity store for handler tests.
type memIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*identitydomain.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{identities: make(map[string]*identitydomain.Identity)}
}

func (m *memIdentityRepo) GetByName(ctx context.Context, name string) (*identitydomain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[name]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (m *memIdentityRepo) Create(ctx context.Context, i *identitydomain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[i.Name]; ok {
		return repository.ErrDuplicateIdentity
	}
	cp := *i
	m.identities[i.Name] = &cp
	return nil
}

func (m *memIdentityRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.identities)), nil
}

// memAuditRepo is an in-memory audit store for handler tests.
type memAuditRepo struct {
	mu      sync.Mutex
	records []*auditdomain.Record
}

func (m *memAuditRepo) Append(ctx context.Context, rec *auditdomain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memAuditRepo) List(ctx context.Context) ([]*auditdomain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*auditdomain.Record(nil), m.records...), nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	sessions := session.NewManager(time.Hour)
	auth := service.NewAuthService(newMemIdentityRepo(), security.NewHasher(4), sessions)
	trail := audit.NewRecorder(&memAuditRepo{}, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	disp := dispatch.NewService(provider.NewRegistry(), trail, time.Second, logger)
	return NewRouter(Deps{
		Auth:     auth,
		Sessions: sessions,
		Dispatch: disp,
		Trail:    trail,
		Logger:   logger,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, h http.Handler, name, secret string) string {
	t.Helper()
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", CredentialsRequest{Name: name, Secret: secret}); w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body)
	}
	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", CredentialsRequest{Name: name, Secret: secret})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body)
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.SessionToken == "" {
		t.Fatal("login returned an empty session token")
	}
	return resp.SessionToken
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", CredentialsRequest{Name: "", Secret: "pw"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
}

func TestRegister_DuplicateName(t *testing.T) {
	h := newTestRouter(t)
	body := CredentialsRequest{Name: "alice", Secret: "pw"}
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("first register = %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", w.Code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newTestRouter(t)
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", CredentialsRequest{Name: "alice", Secret: "pw"}); w.Code != http.StatusCreated {
		t.Fatalf("register = %d", w.Code)
	}

	// Wrong secret and unknown name must be indistinguishable.
	wrong := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", CredentialsRequest{Name: "alice", Secret: "nope"})
	unknown := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", CredentialsRequest{Name: "bob", Secret: "pw"})
	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d, %d, want 401, 401", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Error("wrong-secret and unknown-name responses must match")
	}
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	h := newTestRouter(t)
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/providers/AWS/resources"},
		{http.MethodGet, "/api/v1/providers/AWS/resources"},
		{http.MethodGet, "/api/v1/audit"},
		{http.MethodGet, "/api/v1/metrics/mock"},
	}
	for _, p := range paths {
		if w := doJSON(t, h, p.method, p.path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, w.Code)
		}
		if w := doJSON(t, h, p.method, p.path, "bogus-token", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bogus token = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestCreateResource_AuditsAction(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "alice", "pw")

	w := doJSON(t, h, http.MethodPost, "/api/v1/providers/AWS/resources", token, provider.CreateParams{Name: "web"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body)
	}
	var created provider.CreateResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ResourceID != "aws123" || created.Name != "web" || created.Size != "t2.micro" {
		t.Errorf("created = %+v", created)
	}

	// OpenStack provisions VMs, so its trail entry reads "Create VM".
	if w := doJSON(t, h, http.MethodPost, "/api/v1/providers/OpenStack/resources", token, nil); w.Code != http.StatusCreated {
		t.Fatalf("openstack create = %d: %s", w.Code, w.Body)
	}

	aw := doJSON(t, h, http.MethodGet, "/api/v1/audit", token, nil)
	if aw.Code != http.StatusOK {
		t.Fatalf("audit list = %d", aw.Code)
	}
	var audits struct {
		Records []AuditRecordResponse `json:"records"`
	}
	if err := json.Unmarshal(aw.Body.Bytes(), &audits); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}
	if len(audits.Records) != 2 {
		t.Fatalf("audit records = %d, want 2", len(audits.Records))
	}
	if audits.Records[0].Action != "Create Instance" || audits.Records[0].Provider != "AWS" || audits.Records[0].Actor != "alice" {
		t.Errorf("records[0] = %+v", audits.Records[0])
	}
	if audits.Records[1].Action != "Create VM" || audits.Records[1].Provider != "OpenStack" {
		t.Errorf("records[1] = %+v", audits.Records[1])
	}
}

func TestListResources_NotAudited(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "alice", "pw")

	w := doJSON(t, h, http.MethodGet, "/api/v1/providers/GCP/resources", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", w.Code, w.Body)
	}
	var listed struct {
		Resources []provider.Resource `json:"resources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Resources) != 1 || listed.Resources[0].ResourceID != "gcp123" {
		t.Errorf("resources = %+v", listed.Resources)
	}

	aw := doJSON(t, h, http.MethodGet, "/api/v1/audit", token, nil)
	var audits struct {
		Records []AuditRecordResponse `json:"records"`
	}
	if err := json.Unmarshal(aw.Body.Bytes(), &audits); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}
	if len(audits.Records) != 0 {
		t.Errorf("list must leave no trail, got %d records", len(audits.Records))
	}
}

func TestUnknownProvider_NotFound(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "alice", "pw")
	if w := doJSON(t, h, http.MethodPost, "/api/v1/providers/DigitalOcean/resources", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown provider = %d, want 404", w.Code)
	}
	// Matching is exact: lowercase is not a registered name.
	if w := doJSON(t, h, http.MethodGet, "/api/v1/providers/aws/resources", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("lowercase provider = %d, want 404", w.Code)
	}
}

func TestMockMetrics_Ranges(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "alice", "pw")
	w := doJSON(t, h, http.MethodGet, "/api/v1/metrics/mock", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	var m provider.UtilizationMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if m.CPUPercent < 10 || m.CPUPercent > 90 {
		t.Errorf("cpu = %d", m.CPUPercent)
	}
	if m.MemoryPercent < 20 || m.MemoryPercent > 80 {
		t.Errorf("memory = %d", m.MemoryPercent)
	}
	if m.DiskPercent < 5 || m.DiskPercent > 70 {
		t.Errorf("disk = %d", m.DiskPercent)
	}
}

func TestLogout_EndsSession(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndLogin(t, h, "alice", "pw")

	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/v1/audit", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("request after logout = %d, want 401", w.Code)
	}
	// Logging out again with the dead token stays a no-op.
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Errorf("repeat logout = %d, want 204", w.Code)
	}
	if w := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("logout without token = %d, want 401", w.Code)
	}
}
