package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dialstack/callcore/internal/callsetup"
	"github.com/dialstack/callcore/internal/config"
	"github.com/dialstack/callcore/internal/engine"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/relay"
	"github.com/dialstack/callcore/internal/testutil/testlog"
)

func testServer(t *testing.T, token string) *Server {
	t.Helper()
	cfg := config.DefaultService()
	cfg.LogDir = t.TempDir()
	cfg.AdminToken = token
	setup, err := callsetup.NewService(cfg, policy.PlatformFloor{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	servers := []relay.Server{
		{ID: 1, IPv4: "10.0.0.1", Port: 500, Type: relay.Reflector{PeerTag: []byte{1}}},
		{ID: 2, IPv4: "10.0.0.2", Port: 3478, Type: relay.WebrtcRelay{Username: "u", Password: "p", SupportsTurn: true}},
	}
	return New(cfg, setup, servers)
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	for _, path := range []string{"/health", "/ready"} {
		rr := do(t, s, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rr.Code)
		}
	}
}

func TestDebugOptionsRoundTrip(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodPost, "/debug/options", "", `{"option":"Disable P2P","enabled":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /debug/options status = %d body=%s", rr.Code, rr.Body.String())
	}
	if !s.setup.Flags().OptionEnabled(policy.DisableP2P) {
		t.Fatal("option not applied")
	}

	rr = do(t, s, http.MethodGet, "/debug/options", "", "")
	body := decode(t, rr)
	opts, ok := body["options"].([]any)
	if !ok || len(opts) != len(policy.AllDebugOptions()) {
		t.Fatalf("unexpected options payload: %#v", body)
	}
}

func TestDebugOptionsUnknownName(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodPost, "/debug/options", "", `{"option":"No Such Toggle","enabled":true}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestMutationRequiresToken(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "sekrit")

	rr := do(t, s, http.MethodPost, "/debug/options", "", `{"option":"Disable AEC","enabled":true}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rr.Code)
	}
	rr = do(t, s, http.MethodPost, "/debug/options", "wrong", `{"option":"Disable AEC","enabled":true}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rr.Code)
	}
	rr = do(t, s, http.MethodPost, "/debug/options", "sekrit", `{"option":"Disable AEC","enabled":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", rr.Code)
	}

	// Reads stay open.
	rr = do(t, s, http.MethodGet, "/debug/options", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("read status = %d", rr.Code)
	}
}

func TestForceDisableRoundTrip(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodPost, "/debug/force-disable", "", `{"version":"5.0.0","disabled":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /debug/force-disable status = %d", rr.Code)
	}

	rr = do(t, s, http.MethodGet, "/debug/force-disable", "", "")
	body := decode(t, rr)
	versions, ok := body["versions"].([]any)
	if !ok || len(versions) != 1 || versions[0] != "5.0.0" {
		t.Fatalf("unexpected versions payload: %#v", body)
	}
}

func TestProtocolAdvertisement(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodGet, "/protocol", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /protocol status = %d", rr.Code)
	}
	body := decode(t, rr)
	proto, ok := body["protocol"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected protocol payload: %#v", body)
	}
	versions, _ := proto["library_versions"].([]any)
	if len(versions) == 0 || versions[0] != engine.LegacyVersion {
		t.Fatalf("legacy version should lead the advertisement: %#v", versions)
	}
}

func TestNegotiatePreview(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodPost, "/negotiate/preview", "", `{"library_versions":["5.0.0"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	sel, ok := body["selection"].(map[string]any)
	if !ok || sel["version"] != "5.0.0" || sel["legacy"] != false {
		t.Fatalf("unexpected selection: %#v", body)
	}

	rr = do(t, s, http.MethodPost, "/negotiate/preview", "", `{"library_versions":["9.9.9"]}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("no-match status = %d, want 404", rr.Code)
	}
}

func TestServersInspection(t *testing.T) {
	testlog.Start(t)
	s := testServer(t, "")

	rr := do(t, s, http.MethodGet, "/servers", "", "")
	body := decode(t, rr)
	usable, ok := body["usable"].([]any)
	if !ok || len(usable) != 2 {
		t.Fatalf("unexpected usable servers: %#v", body)
	}

	s.setup.Flags().SetOption(policy.IgnoreNonTURNServers, true)
	rr = do(t, s, http.MethodGet, "/servers", "", "")
	body = decode(t, rr)
	usable, _ = body["usable"].([]any)
	if len(usable) != 1 {
		t.Fatalf("expected reflector dropped, got %#v", body)
	}
}
