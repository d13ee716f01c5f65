package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lab-service/internal/audit"
	"lab-service/internal/auth"
	"lab-service/internal/cache"
	"lab-service/internal/config"
	"lab-service/internal/directory"
	"lab-service/internal/domain/principal"
	"lab-service/internal/intake"
	"lab-service/internal/ledger"
	"lab-service/internal/lifecycle"
	"lab-service/internal/metrics"
	"lab-service/internal/notify"
	"lab-service/internal/policy"
	"lab-service/internal/repository/memory"
	"lab-service/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "k3J9xq2LmP0vR8sT4wY6zA1bC5dE7fG9"
	testPassword = "password-123"
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]int
}

func (b *memBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = len(data)
	return "https://results.example/" + key, nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

type testServer struct {
	t       *testing.T
	server  *Server
	emitter *notify.Emitter
	audit   *audit.Logger
	dir     *directory.Service
	tokens  map[principal.Role]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	pol := policy.Default()
	m := metrics.New()
	emitter := notify.NewEmitter(store, pol)
	engine := lifecycle.NewEngine(store, pol, ledger.New(nil),
		lifecycle.WithBlobStore(&memBlobs{objects: map[string]int{}}),
		lifecycle.WithNotifier(emitter),
		lifecycle.WithRecorder(m),
	)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	principals := cache.NewPrincipalCache(time.Minute)
	dir := directory.NewService(store, pol, hasher, jwtService, principals, nil)
	auditLogger := audit.NewLogger(audit.NewZapSink(nil), nil)

	cfg := &config.Config{
		App:     config.AppConfig{MaxResultSize: 1 << 20},
		Metrics: config.MetricsConfig{Enabled: true, Profiling: true},
	}

	ts := &testServer{
		t:       t,
		emitter: emitter,
		audit:   auditLogger,
		dir:     dir,
		tokens:  map[principal.Role]string{},
		server: NewServer(&ServerDependencies{
			Config:         cfg,
			Store:          store,
			Directory:      dir,
			Engine:         engine,
			Intake:         intake.NewService(store, pol, engine, emitter, nil),
			Inbox:          emitter,
			AuthMiddleware: auth.NewMiddleware(jwtService, dir, nil),
			Metrics:        m,
			AuditLogger:    auditLogger,
		}),
	}

	created, err := dir.Bootstrap(ctx, "director@lab.example", testPassword)
	require.NoError(t, err)
	require.True(t, created)
	director, err := store.Principals().GetByEmail(ctx, "director@lab.example")
	require.NoError(t, err)

	for _, role := range []principal.Role{
		principal.RoleEngineer,
		principal.RoleSupervisor,
		principal.RoleHSM,
		principal.RoleLabTechnician,
		principal.RoleExternalClient,
		principal.RoleAccountManager,
	} {
		_, err := dir.ProvisionUser(ctx, director, directory.ProvisionInput{
			Email:    string(role) + "@lab.example",
			Password: testPassword,
			FullName: "Test " + string(role),
			Role:     role,
		})
		require.NoError(t, err)
	}

	for _, role := range []principal.Role{
		principal.RoleLabDirector,
		principal.RoleEngineer,
		principal.RoleSupervisor,
		principal.RoleHSM,
		principal.RoleLabTechnician,
		principal.RoleExternalClient,
		principal.RoleAccountManager,
	} {
		email := string(role) + "@lab.example"
		if role == principal.RoleLabDirector {
			email = "director@lab.example"
		}
		rec := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		ts.tokens[role] = decode[map[string]interface{}](t, rec)["token"].(string)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = emitter.Wait(ctx)
		auditLogger.Flush()
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) as(role principal.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	return ts.do(method, path, ts.tokens[role], body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (ts *testServer) createAndSubmit() string {
	ts.t.Helper()
	rec := ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects", map[string]interface{}{
		"title":            "Fatigue rig",
		"description":      "Cyclic loading of weld samples",
		"equipment_needed": []string{"servo press"},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]interface{}](ts.t, rec)["id"].(string)

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects/"+id+"/submit", nil)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func (ts *testServer) decide(role principal.Role, id, decision, comments string) *httptest.ResponseRecorder {
	ts.t.Helper()
	return ts.as(role, http.MethodPost, "/api/projects/"+id+"/decisions", map[string]string{
		"decision": decision,
		"comments": comments,
	})
}

func statusOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]interface{}](t, rec)["status"].(string)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", statusOf(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Authentication(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[map[string]string](t, rec)["code"])

	rec = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "director@lab.example", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[map[string]string](t, rec)["code"])

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "engineer", decode[map[string]interface{}](t, rec)["role"])
}

func TestServer_ApprovalChain(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createAndSubmit()

	rec := ts.decide(principal.RoleSupervisor, id, "approved", "  ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, rec)["code"])

	rec = ts.decide(principal.RoleHSM, id, "approved", "ok")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pending_supervisor", decode[map[string]string](t, rec)["current_status"])

	rec = ts.decide(principal.RoleEngineer, id, "approved", "ok")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.decide(principal.RoleSupervisor, id, "approved", "looks fine")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[map[string]map[string]interface{}](t, rec)
	assert.Equal(t, "pending_hsm", outcome["project"]["status"])
	assert.Equal(t, "supervisor", outcome["approval"]["approver_role"])

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
	assert.Equal(t, "pending_hsm", body["current_status"])

	rec = ts.decide(principal.RoleHSM, id, "changes_requested", "add a guard")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/"+id, nil)
	assert.Equal(t, "draft", statusOf(t, rec))

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/"+id+"/approvals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]map[string]interface{}](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "hsm", history[0]["approver_role"])
	assert.Equal(t, "add a guard", history[0]["comments"])
}

func TestServer_FullLifecycleWithResults(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createAndSubmit()

	rec := ts.as(principal.RoleSupervisor, http.MethodGet, "/api/reviews/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	for _, role := range []principal.Role{principal.RoleSupervisor, principal.RoleHSM, principal.RoleLabTechnician} {
		rec := ts.decide(role, id, "approved", "signed off")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/"+id, nil)
	assert.Equal(t, "approved", statusOf(t, rec))

	rec = ts.upload(principal.RoleEngineer, id, "readings.csv", "t,load\n0,1\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "csv", decode[map[string]interface{}](t, rec)["file_type"])

	rec = ts.upload(principal.RoleEngineer, id, "notes.txt", "hello")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/"+id+"/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects/"+id+"/start", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.as(principal.RoleLabDirector, http.MethodPost, "/api/projects/"+id+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "in_progress", statusOf(t, rec))

	rec = ts.as(principal.RoleLabDirector, http.MethodPost, "/api/projects/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", statusOf(t, rec))

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lab_service_workflow_transitions_total{from="in_progress",to="completed"} 1`)
	assert.Contains(t, rec.Body.String(), `lab_service_approval_decisions_total{decision="approved",role="hsm"} 1`)
}

func (ts *testServer) upload(role principal.Role, id, name, content string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(ts.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(ts.t, err)
	require.NoError(ts.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+id+"/results", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.tokens[role])
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_RequestValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects", map[string]string{"title": "No description"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, rec)["code"])

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/projects", map[string]string{"title": "x", "description": "y", "budget": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/projects/3f1d4f8e-5d7a-4c55-9b0e-2a8d4b0f6c11", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UserAdministration(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.as(principal.RoleEngineer, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.as(principal.RoleLabDirector, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]map[string]interface{}](t, rec)
	assert.Len(t, users, 7)

	rec = ts.as(principal.RoleLabDirector, http.MethodPost, "/api/users", map[string]string{
		"email":     "engineer@lab.example",
		"password":  testPassword,
		"full_name": "Duplicate",
		"role":      "engineer",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var engineerID string
	for _, u := range users {
		if u["role"] == "engineer" {
			engineerID = u["id"].(string)
		}
	}
	rec = ts.as(principal.RoleLabDirector, http.MethodPut, "/api/users/"+engineerID+"/access", map[string]interface{}{"role": "supervisor"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The old token carries the previous role.
	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ChangePassword(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.as(principal.RoleEngineer, http.MethodPut, "/api/me/password", map[string]string{
		"current_password": "not-my-password",
		"new_password":     "brand-new-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.as(principal.RoleEngineer, http.MethodPut, "/api/me/password", map[string]string{
		"current_password": testPassword,
		"new_password":     "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "engineer@lab.example", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ClientRequestIntake(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.as(principal.RoleExternalClient, http.MethodPost, "/api/client-requests", map[string]string{
		"request_type":          "problem",
		"title":                 "Cracked housings",
		"description":           "Field returns show cracks",
		"detailed_requirements": "Root cause within four weeks",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	id := created["id"].(string)
	assert.Equal(t, "medium", created["priority"])
	assert.Equal(t, "new", created["status"])

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/client-requests/"+id+"/convert", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.as(principal.RoleAccountManager, http.MethodPost, "/api/client-requests/"+id+"/assign", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]interface{}](t, rec)["assigned_account_manager_id"])

	rec = ts.as(principal.RoleAccountManager, http.MethodPut, "/api/client-requests/"+id+"/status", map[string]string{"status": "under_review"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.as(principal.RoleEngineer, http.MethodPost, "/api/client-requests/"+id+"/convert", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conv := decode[map[string]map[string]interface{}](t, rec)
	assert.Equal(t, "draft", conv["project"]["status"])
	assert.Equal(t, "Cracked housings", conv["project"]["title"])
	assert.Equal(t, id, conv["project"]["linked_client_request_id"])
	assert.Equal(t, "converted_to_project", conv["request"]["status"])

	rec = ts.as(principal.RoleExternalClient, http.MethodGet, "/api/client-requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), 1)
}

func TestServer_Notifications(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createAndSubmit()

	rec := ts.decide(principal.RoleSupervisor, id, "approved", "ok")
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.emitter.Wait(ctx))

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]map[string]interface{}](t, rec)
	require.NotEmpty(t, items)

	first := items[0]["id"].(string)
	rec = ts.as(principal.RoleEngineer, http.MethodPut, fmt.Sprintf("/api/notifications/%s/read", first), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.as(principal.RoleEngineer, http.MethodGet, "/api/notifications?unread=true", nil)
	assert.Len(t, decode[[]map[string]interface{}](t, rec), len(items)-1)

	rec = ts.as(principal.RoleSupervisor, http.MethodPut, fmt.Sprintf("/api/notifications/%s/read", first), nil)
	assert.True(t, rec.Code == http.StatusNotFound || rec.Code == http.StatusForbidden, rec.Body.String())
	assert.False(t, strings.Contains(rec.Body.String(), "Fatigue rig"))
}

func TestServer_DebugEndpointsDirectorOnly(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.as(principal.RoleEngineer, http.MethodGet, "/api/debug/runtime", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.as(principal.RoleLabDirector, http.MethodGet, "/api/debug/runtime", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutines")
}
