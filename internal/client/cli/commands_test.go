package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers like gophauth for one account.
type fakeServer struct {
	mu       sync.Mutex
	register []map[string]any
	tokens   []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/healthz":
		_, _ = w.Write([]byte(`{"status":"ok"}`))

	case "/auth/register":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.register = append(f.register, body)
		if body["email"] == "taken@x.io" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Email is already registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"is_authenticated":true,"username":"alice","email":"a@x.io","roles":["User"],"token":"reg-token","expires_on":"2030-01-01T00:00:00Z"}`))

	case "/auth/login":
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "Passw0rd!" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"is_authenticated":true,"username":"alice","email":"a@x.io","roles":["User"],"token":"login-token"}`))

	case "/auth/me":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.tokens = append(f.tokens, token)
		if token != "login-token" && token != "reg-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"is_authenticated":true,"username":"alice","email":"a@x.io","roles":["Admin","User"]}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	srv       *fakeServer
	url       string
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := &fakeServer{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return &harness{srv: f, url: srv.URL, tokenFile: filepath.Join(t.TempDir(), "token")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetArgs(append(args, "-a", h.url, "--token-file", h.tokenFile, "--retries", "0"))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegister_SavesToken(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "alice\na@x.io\nAlice\nLiddell\n\nPassw0rd!\nPassw0rd!\n", "register")
	require.NoError(t, err)

	assert.Contains(t, out, "Signed in as alice <a@x.io>")
	assert.Contains(t, out, "Roles: User")
	assert.Contains(t, out, "Token expires:")

	require.Len(t, h.srv.register, 1)
	body := h.srv.register[0]
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Liddell", body["last_name"])
	assert.Equal(t, "Passw0rd!", body["password"])
	assert.NotContains(t, body, "phone_number")

	saved, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "reg-token", string(saved))
}

func TestRegister_PasswordMismatchSendsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "alice\na@x.io\nAlice\nLiddell\n\nPassw0rd!\nother\n", "register")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
	assert.Empty(t, h.srv.register)
}

func TestRegister_ServerRejection(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "alice\ntaken@x.io\nAlice\nLiddell\n\nPassw0rd!\nPassw0rd!\n", "register")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email is already registered")
	assert.NoFileExists(t, h.tokenFile)
}

func TestLoginMeLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "a@x.io\nPassw0rd!\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice")

	out, err = h.run(t, "", "me")
	require.NoError(t, err)
	assert.Contains(t, out, "Roles: Admin, User")
	assert.Equal(t, []string{"login-token"}, h.srv.tokens)

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = h.run(t, "", "me")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "a@x.io\nwrong\n", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.NoFileExists(t, h.tokenFile)
}

func TestMe_StaleToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, NewTokenStore(h.tokenFile).Save("stale"))

	_, err := h.run(t, "", "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'login' again")
}

func TestPing_UsesConfigFile(t *testing.T) {
	h := newHarness(t)

	cfgPath := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"server_url":"`+h.url+`"}`), 0o600))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"ping", "-c", cfgPath})
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), h.url+" is up")
}

func TestBadServerURL(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"ping", "-a", "not a url"})
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	assert.Error(t, cmd.Execute())
}
