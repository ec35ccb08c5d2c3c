package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

type mockVerifier struct {
	identity *driven.IdentityClaims
	err      error
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*driven.IdentityClaims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}

type mockDashboard struct {
	exposures []domain.FileExposure
	stats     *driving.OwnerStats
	err       error
	owner     string
}

func (m *mockDashboard) OwnerExposures(ctx context.Context, ownerEmail string) ([]domain.FileExposure, error) {
	m.owner = ownerEmail
	if m.err != nil {
		return nil, m.err
	}
	return m.exposures, nil
}

func (m *mockDashboard) OwnerStats(ctx context.Context, ownerEmail string) (*driving.OwnerStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

type mockRemediation struct {
	outcome *driving.UnshareOutcome
	err     error
	token   string
	fileIDs []string
}

func (m *mockRemediation) Unshare(ctx context.Context, accessToken string, fileIDs []string) (*driving.UnshareOutcome, error) {
	m.token = accessToken
	m.fileIDs = fileIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func testExposures() []domain.FileExposure {
	return []domain.FileExposure{
		{
			ID:            "d1:f1",
			RiskScore:     82,
			RiskLevel:     domain.RiskHigh,
			Source:        "OneDrive",
			ItemType:      domain.ItemTypeFile,
			ItemPath:      "/Finance/budget.xlsx",
			SharingTypes:  "Link-Anyone",
			SharedWith:    "anonymous",
			AudienceTypes: "Anonymous",
			Roles:         "Read",
		},
		{
			ID:            "d1:f2",
			RiskScore:     12,
			RiskLevel:     domain.RiskLow,
			Source:        "SharePoint",
			ItemType:      domain.ItemTypeFile,
			ItemPath:      "/Shared Documents/notes.docx",
			SharingTypes:  "User",
			SharedWith:    "bob@contoso.com",
			AudienceTypes: "Internal",
			Roles:         "Write",
		},
	}
}

func testStats() *driving.OwnerStats {
	return &driving.OwnerStats{
		Total: 2, High: 1, Low: 1,
		RunID:    "run-1",
		ScanTime: "2026-03-14T09:00:00Z",
	}
}

type serverFixture struct {
	server      *Server
	router      http.Handler
	dashboard   *mockDashboard
	remediation *mockRemediation
	verifier    *mockVerifier
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		dashboard:   &mockDashboard{exposures: testExposures(), stats: testStats()},
		remediation: &mockRemediation{outcome: &driving.UnshareOutcome{Succeeded: []string{"d1:f1"}}},
		verifier:    &mockVerifier{identity: &driven.IdentityClaims{Email: "anna@contoso.com", Name: "Anna Hansen"}},
	}
	f.server = NewServer(f.dashboard, f.remediation, f.verifier)
	f.router = f.server.Router()
	return f
}

// signIn creates a session directly and returns its cookie.
func (f *serverFixture) signIn(email, name string) *http.Cookie {
	sid := f.server.sessions.Create(email, name)
	return &http.Cookie{Name: sessionCookie, Value: sid}
}

func (f *serverFixture) request(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)
	w := f.request(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestLoginCreatesSession(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(t, http.MethodPost, "/api/auth/login", `{"id_token":"token"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anna@contoso.com", decodeBody(t, w)["email"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	me := f.request(t, http.MethodGet, "/api/auth/me", "", cookies[0])
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "Anna Hansen", decodeBody(t, me)["name"])
}

func TestLoginRejectsInvalidToken(t *testing.T) {
	f := newServerFixture(t)
	f.verifier.err = domain.ErrAuthInvalid

	w := f.request(t, http.MethodPost, "/api/auth/login", `{"id_token":"bad"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRequiresToken(t *testing.T) {
	f := newServerFixture(t)
	w := f.request(t, http.MethodPost, "/api/auth/login", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodPost, "/api/auth/logout", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	me := f.request(t, http.MethodGet, "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestFilesRequiresSession(t *testing.T) {
	f := newServerFixture(t)
	w := f.request(t, http.MethodGet, "/api/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFilesReturnsOwnerExposures(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodGet, "/api/files", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anna@contoso.com", f.dashboard.owner)

	body := decodeBody(t, w)
	files := body["files"].([]any)
	require.Len(t, files, 2)
	first := files[0].(map[string]any)
	assert.Equal(t, "d1:f1", first["id"])
	assert.Equal(t, "HIGH", first["risk_level"])
	assert.Equal(t, "2026-03-14T09:00:00Z", body["last_scan"])
}

func TestFilesFilters(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"risk level", "risk_level=high", "d1:f1"},
		{"source", "source=SharePoint", "d1:f2"},
		{"search", "search=budget", "d1:f1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(t, http.MethodGet, "/api/files?"+tt.query, "", cookie)
			require.Equal(t, http.StatusOK, w.Code)
			files := decodeBody(t, w)["files"].([]any)
			require.Len(t, files, 1)
			assert.Equal(t, tt.wantID, files[0].(map[string]any)["id"])
		})
	}
}

func TestFilesNoCompletedRun(t *testing.T) {
	f := newServerFixture(t)
	f.dashboard.err = domain.ErrNoCompletedRun
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodGet, "/api/files", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Empty(t, body["files"])
	assert.Nil(t, body["last_scan"])
}

func TestStats(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodGet, "/api/stats", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["high"])
	assert.Equal(t, "run-1", body["run_id"])
}

func TestStatsNoCompletedRun(t *testing.T) {
	f := newServerFixture(t)
	f.dashboard.err = domain.ErrNoCompletedRun
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodGet, "/api/stats", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["total"])
	assert.Nil(t, body["last_scan"])
}

func TestUnshare(t *testing.T) {
	f := newServerFixture(t)
	f.remediation.outcome = &driving.UnshareOutcome{
		Succeeded: []string{"d1:f1"},
		Failed: []driving.UnshareFailure{
			{ID: "d1:f2", Reason: "ACCESS_DENIED", Message: "You don't have permission to modify sharing for this file.", Action: "Contact the file owner."},
		},
	}
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodPost, "/api/unshare",
		`{"file_ids":["d1:f1","d1:f2"],"graph_token":"delegated"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "delegated", f.remediation.token)
	assert.Equal(t, []string{"d1:f1", "d1:f2"}, f.remediation.fileIDs)

	body := decodeBody(t, w)
	assert.Equal(t, []any{"d1:f1"}, body["succeeded"])
	failed := body["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "ACCESS_DENIED", failed[0].(map[string]any)["reason"])
}

func TestUnshareRequiresFileIDs(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodPost, "/api/unshare", `{"file_ids":[],"graph_token":"delegated"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnshareServiceFailure(t *testing.T) {
	f := newServerFixture(t)
	f.remediation.err = errors.New("store offline")
	cookie := f.signIn("anna@contoso.com", "Anna Hansen")

	w := f.request(t, http.MethodPost, "/api/unshare", `{"file_ids":["d1:f1"],"graph_token":"delegated"}`, cookie)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(SessionTTL)

	sid := store.Create("anna@contoso.com", "Anna Hansen")
	sess, ok := store.Get(sid)
	require.True(t, ok)
	assert.Equal(t, "anna@contoso.com", sess.Email)

	store.Delete(sid)
	_, ok = store.Get(sid)
	assert.False(t, ok)
}
