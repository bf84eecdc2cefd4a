package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/passage/internal/api"
)

func setupEnv(t *testing.T, apiURL, providerURL string) {
	t.Helper()
	t.Setenv("PASSAGE_DATA_DIR", t.TempDir())
	t.Setenv("PASSAGE_API_URL", apiURL)
	t.Setenv("PASSAGE_PROVIDER_URL", providerURL)
	t.Setenv("PASSAGE_PROVIDER_KEY", "anon-key")
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoginPrintsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		io.WriteString(w, `{"token":"abc"}`)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL+"/api/auth", srv.URL)

	out, _, err := run(t, "login", "ana@example.com", "-p", "pw")
	require.NoError(t, err)
	assert.Equal(t, "{\"token\":\"abc\"}\n", out)
}

func TestLoginFailurePrintsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Bad credentials"}`)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL, srv.URL)

	_, errOut, err := run(t, "login", "ana@example.com", "-p", "wrong")
	require.Error(t, err)
	payload, ok := api.AsErrorPayload(err)
	require.True(t, ok)
	assert.Equal(t, "Bad credentials", payload.Message)
	assert.JSONEq(t, `{"message":"Bad credentials"}`, errOut)
}

func TestLoginFailurePrintsBodyWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"invalid_grant"}`)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL, srv.URL)

	_, errOut, err := run(t, "login", "ana@example.com", "-p", "wrong")
	require.Error(t, err)
	assert.JSONEq(t, `{"error":"invalid_grant"}`, errOut)
}

func TestRegisterSendsRawData(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL, srv.URL)

	out, _, err := run(t, "register", "--data", `{"email":"x@y.z","plan":"pro"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "x@y.z", "plan": "pro"}, got)
	assert.JSONEq(t, `{"ok":true}`, out)
}

func TestRegisterRejectsInvalidData(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	_, _, err := run(t, "register", "--data", `{nope`)
	assert.EqualError(t, err, "--data is not valid JSON")
}

func TestWhoamiWithoutTokenThenHistory(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	out, _, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "signed out")

	out, _, err = run(t, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "signed out")
}

func TestHistoryEmpty(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	out, _, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing recorded yet.")
}

func signInServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			io.WriteString(w, `{"access_token":"`+token+`","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"ana@example.com"}}`)
		case "/user":
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			io.WriteString(w, `{"id":"u1","email":"ana@example.com","role":"authenticated"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSignInPrintsProviderUser(t *testing.T) {
	const token = "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	srv := signInServer(t, token)
	setupEnv(t, srv.URL, srv.URL)

	out, errOut, err := run(t, "signin", "ana@example.com", "-p", "pw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"ana@example.com","role":"authenticated"}`, out)
	assert.NotContains(t, errOut, token)
	assert.Contains(t, errOut, "eyJhbGci...ture")

	out, _, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "SIGNED_IN")
}

func TestSignInShowTokenPrintsFullToken(t *testing.T) {
	const token = "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	srv := signInServer(t, token)
	setupEnv(t, srv.URL, srv.URL)

	_, errOut, err := run(t, "signin", "ana@example.com", "-p", "pw", "--show-token")
	require.NoError(t, err)
	assert.Contains(t, errOut, token)
}

func TestShortToken(t *testing.T) {
	assert.Equal(t, "[redacted]", shortToken("tok"))
	assert.Equal(t, "[redacted]", shortToken(""))
	assert.Equal(t, "abcdefgh...wxyz", shortToken("abcdefghijklmnopqrstuvwxyz"))
}
