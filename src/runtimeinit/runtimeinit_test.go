package runtimeinit

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"offlinemind/src/config"
)

func unusedURL(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return "http://" + addr
}

func isolateEnv(t *testing.T) {
	t.Setenv(config.EnvPathEnvVar, t.TempDir()+"/missing.env")
	for _, key := range []string{"OLLAMA_URL", "MODEL", "PROVIDER", "REQUEST_TIMEOUT_SEC"} {
		t.Setenv(key, "")
	}
}

func TestBootstrapWarnsWhenServerUnreachable(t *testing.T) {
	isolateEnv(t)
	var warned []string
	loggingSetUp := false

	rt, err := Bootstrap(Options{
		LoadOptions:     config.LoadOptions{BaseURLOverride: unusedURL(t), ModelOverride: "gemma3n"},
		SetupLogging:    func(bool) { loggingSetUp = true },
		WarnUnavailable: true,
		warn:            func(title, message string) { warned = append(warned, message) },
	})

	require.NoError(t, err, "unreachable server must not be fatal")
	require.NotNil(t, rt.LLM)
	require.True(t, loggingSetUp)
	require.Len(t, warned, 1)
	require.Contains(t, warned[0], "'gemma3n'")
}

func TestBootstrapHealthyServer(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"gemma3n:latest"}]}`))
	}))
	defer srv.Close()

	clipboardInit := 0
	rt, err := Bootstrap(Options{
		LoadOptions:     config.LoadOptions{BaseURLOverride: srv.URL},
		WarnUnavailable: true,
		NeedClipboard:   true,
		initClipboard:   func() error { clipboardInit++; return nil },
		warn:            func(title, message string) { t.Fatalf("unexpected warning: %s", message) },
	})
	require.NoError(t, err)
	require.Equal(t, srv.URL, rt.Config.BaseURL)
	require.Equal(t, "gemma3n", rt.LLM.Model())
	require.Equal(t, 1, clipboardInit)
}

func TestBootstrapClipboardFailure(t *testing.T) {
	isolateEnv(t)
	_, err := Bootstrap(Options{
		LoadOptions:   config.LoadOptions{BaseURLOverride: unusedURL(t)},
		NeedClipboard: true,
		initClipboard: func() error { return errors.New("no display") },
	})
	require.ErrorContains(t, err, "failed to initialize clipboard")
}
