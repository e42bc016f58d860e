package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/attendance"
	attendancestore "timeclock/internal/attendance/store"
	"timeclock/internal/auth"
	"timeclock/internal/directory"
	directorystore "timeclock/internal/directory/store"
	"timeclock/internal/evidence"
	"timeclock/internal/logbook"
	"timeclock/internal/platform/config"
	"timeclock/internal/storeaudit"
	auditstore "timeclock/internal/storeaudit/store"
	"timeclock/internal/verify"
	"timeclock/internal/vision"
)

const adminToken = "test-admin-token"

type stubVerifier struct{ verdict verify.Verdict }

func (v stubVerifier) Verify(context.Context, verify.InlineImage, verify.Mode, string) verify.Verdict {
	return v.verdict
}

// newTestServer wires the full router over memory stores and stub adapters.
func newTestServer(t *testing.T) (*httptest.Server, *logbook.Logbook) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	dir := directory.NewService(directorystore.NewMemoryUserStore(), directorystore.NewMemoryStoreStore(), logger)
	require.NoError(t, dir.Seed(context.Background()))

	authSvc := auth.NewService(dir, auth.NewTokenIssuer("test-signing-key", time.Hour), auth.NewMemorySessionStore(), logger)
	book := logbook.New(attendancestore.NewMemoryTimeLogStore(), logger)
	uploader := evidence.NewMemoryUploader()

	verifier := stubVerifier{verdict: verify.Verdict{
		Verified: true, IdentityScore: 96, Message: "Identidad confirmada.", UniformOK: true,
	}}

	sessions := NewSessionManager(func(locator attendance.Locator, camera attendance.Camera) *attendance.Flow {
		return attendance.NewFlow(attendance.Deps{
			Credentials: authSvc,
			Stores:      dir,
			Logs:        book,
			Verifier:    verifier,
			Evidence:    uploader,
			Locator:     locator,
			Camera:      camera,
			Logger:      logger,
		}, attendance.Config{EntryDwell: time.Minute, ExitDwell: time.Minute})
	})

	analyzerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": `{"score":80,"summary":"Buen estado.","criticalIssues":[],"recommendations":["Mantener orden."]}`},
				}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(analyzerSrv.Close)

	analyzer := storeaudit.NewAnalyzer(vision.New(config.VisionConfig{
		Endpoint: analyzerSrv.URL, Model: "test-model", Timeout: 5 * time.Second,
	}))
	audits := storeaudit.NewService(auditstore.NewMemoryAuditStore(), dir, analyzer, uploader, logger)

	router := NewRouter(
		NewFlowHandler(sessions, authSvc, dir, logger),
		NewAdminHandler(dir, book, audits, authSvc, adminToken, logger),
		NewAuditHandler(audits, authSvc, logger),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, book
}

type client struct {
	t        *testing.T
	base     string
	terminal string
	bearer   string
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if c.terminal != "" {
		req.Header.Set("X-Terminal-Id", c.terminal)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (c *client) waitFlowState(want string) {
	c.t.Helper()
	require.Eventually(c.t, func() bool {
		_, body := c.do(http.MethodGet, "/flow/state", nil)
		state, _ := body["state"].(string)
		return state == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFlowRequiresTerminalHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	resp, body := c.do(http.MethodGet, "/flow/state", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["error"])
}

func TestFlowLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-1"}

	t.Run("bad credentials", func(t *testing.T) {
		resp, _ := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin lands in authenticated state", func(t *testing.T) {
		resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "admin", "password": "admin123"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body["token"])
		state := body["state"].(map[string]any)
		assert.Equal(t, "authenticated", state["state"])
		c.do(http.MethodPost, "/flow/cancel", nil)
	})

	t.Run("auditor logs in", func(t *testing.T) {
		resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body["token"])
		state := body["state"].(map[string]any)
		assert.Equal(t, "store_selection", state["state"])
	})
}

func TestFullClockInOverHTTP(t *testing.T) {
	srv, book := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-1"}

	resp, _ := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Assigned stores for the terminal UI.
	resp, body := c.do(http.MethodGet, "/flow/stores", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stores := body["stores"].([]any)
	require.Len(t, stores, 2)

	// Store selection with the reported position (at the store itself).
	resp, _ = c.do(http.MethodPost, "/flow/store", map[string]any{
		"storeId":  "STORE-001",
		"position": map[string]float64{"lat": -34.603722, "lng": -58.381592},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	c.waitFlowState("clock_selection")

	resp, _ = c.do(http.MethodPost, "/flow/action", map[string]string{"type": "INGRESO"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/flow/capture", map[string]string{"image": "data:image/jpeg;base64,c2VsZmll"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	c.waitFlowState("success_entry")

	_, body = c.do(http.MethodGet, "/flow/state", nil)
	lastLog := body["lastLog"].(map[string]any)
	assert.Equal(t, "auditor", lastLog["userId"])
	assert.Equal(t, "INGRESO", lastLog["type"])
	assert.Equal(t, false, lastLog["hasIncident"])

	require.Len(t, book.Logs(), 1)
	assert.True(t, book.IsClockedIn("auditor"))
}

func TestFlowDegradesOnPositionError(t *testing.T) {
	srv, book := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-2"}

	resp, _ := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No position reported: the flow degrades and flags a GPS incident.
	resp, _ = c.do(http.MethodPost, "/flow/store", map[string]any{
		"storeId":       "STORE-001",
		"positionError": "permission_denied",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	c.waitFlowState("clock_selection")

	resp, _ = c.do(http.MethodPost, "/flow/action", map[string]string{"type": "INGRESO"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/flow/capture", map[string]string{"image": "data:image/jpeg;base64,c2VsZmll"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	c.waitFlowState("success_entry")

	logs := book.Logs()
	require.Len(t, logs, 1)
	assert.True(t, logs[0].HasIncident)
	assert.Contains(t, logs[0].IncidentDetail, "Error GPS")
}

func TestLogoutEndsSessionAndResetsTerminal(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-3"}

	resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.bearer = body["token"].(string)

	resp, _ = c.do(http.MethodGet, "/audits/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/flow/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "credentials", body["state"])

	// The session token no longer validates.
	resp, _ = c.do(http.MethodGet, "/audits/questions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/users", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	withToken := func(method, path string, body any) (*http.Response, map[string]any) {
		t.Helper()
		var payload []byte
		if body != nil {
			var err error
			payload, err = json.Marshal(body)
			require.NoError(t, err)
		}
		req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("X-Admin-Token", adminToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var decoded map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return resp, decoded
	}

	t.Run("list seeded users without passwords", func(t *testing.T) {
		resp, body := withToken(http.MethodGet, "/admin/users", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		users := body["users"].([]any)
		require.Len(t, users, 3)
		for _, u := range users {
			_, hasPassword := u.(map[string]any)["password"]
			assert.False(t, hasPassword)
		}
	})

	t.Run("create and delete user", func(t *testing.T) {
		resp, _ := withToken(http.MethodPost, "/admin/users", map[string]any{
			"username": "nuevo", "password": "1234", "fullName": "Nuevo Empleado",
			"role": "auditor", "assignedStoreIds": []string{"STORE-001"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, body := withToken(http.MethodPost, "/admin/users", map[string]any{
			"username": "nuevo", "password": "1234", "fullName": "Duplicado", "role": "auditor",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "conflict", body["error"])

		resp, _ = withToken(http.MethodDelete, "/admin/users/nuevo", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("store validation", func(t *testing.T) {
		resp, body := withToken(http.MethodPost, "/admin/stores", map[string]any{"id": "", "name": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "bad_request", body["error"])
	})
}

func TestAdminSessionTokenAccess(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-adm"}

	resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminBearer := body["token"].(string)

	t.Run("admin session opens the back office", func(t *testing.T) {
		resp, body := c.do(http.MethodGet, "/admin/users", nil)
		// No bearer on the client yet: only the terminal header is sent.
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		c.bearer = adminBearer
		resp, body = c.do(http.MethodGet, "/admin/users", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["users"].([]any), 3)
	})

	t.Run("auditor session does not", func(t *testing.T) {
		c.bearer = ""
		resp, _ := c.do(http.MethodPost, "/flow/cancel", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c.bearer = body["token"].(string)

		resp, _ = c.do(http.MethodGet, "/admin/users", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuditEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL, terminal: "term-9"}

	t.Run("requires session", func(t *testing.T) {
		resp, _ := c.do(http.MethodGet, "/audits/questions", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	// Log in to obtain a session token.
	resp, body := c.do(http.MethodPost, "/flow/login", map[string]string{"username": "auditor", "password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.bearer = body["token"].(string)

	t.Run("question catalog", func(t *testing.T) {
		resp, body := c.do(http.MethodGet, "/audits/questions", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		questions := body["questions"].([]any)
		require.Len(t, questions, 14)
		first := questions[0].(map[string]any)
		assert.Equal(t, "dep_01", first["id"])
	})

	t.Run("submit audit", func(t *testing.T) {
		resp, body := c.do(http.MethodPost, "/audits/", map[string]any{
			"storeId": "STORE-001",
			"answers": map[string]string{
				"dep_01": "Sí", "dep_02": "Sí", "dep_03": "Sí",
				"dep_03_mark": "Sí", "dep_03_obs": "Sí",
				"dep_04": "Sí", "dep_04_where": "Sobre la puerta",
				"dep_05": "Sí", "dep_06": "Buena",
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, float64(80), body["score"])
		assert.Equal(t, "auditor", body["userId"])
		assert.Equal(t, "Sucursal Centro", body["storeName"])
	})
}
