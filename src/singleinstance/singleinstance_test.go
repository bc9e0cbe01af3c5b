package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

// useFreePort pins the port range to a single free loopback port.
func useFreePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", residentHost+":0")
	if err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	_ = lis.Close()
	t.Setenv("SINGLEINSTANCE_PORT_START", strconv.Itoa(port))
	t.Setenv("SINGLEINSTANCE_PORT_END", strconv.Itoa(port))
	return port
}

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback listener unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerClientRoundTrip(t *testing.T) {
	port := useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)
	if srv.Port() != port {
		t.Fatalf("expected port %d, got %d", port, srv.Port())
	}

	type outcome struct {
		delegated bool
		text      string
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		delegated, text, err := NewClient().TryExplain(ctx, Request{Text: "ubiquitous", Language: "French"})
		done <- outcome{delegated, text, err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := conn.Request(); got.Text != "ubiquitous" || got.Language != "French" {
		t.Errorf("unexpected request %+v", got)
	}
	if err := conn.RespondSuccess("Présent partout.\nSecond line."); err != nil {
		t.Fatalf("respond: %v", err)
	}
	_ = conn.Close()

	res := <-done
	if res.err != nil || !res.delegated {
		t.Fatalf("expected delegation, got delegated=%v err=%v", res.delegated, res.err)
	}
	if res.text != "Présent partout.\nSecond line." {
		t.Errorf("unexpected text %q", res.text)
	}
}

func TestClientReceivesError(t *testing.T) {
	useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	errCh := make(chan error, 1)
	go func() {
		_, _, err := NewClient().TryExplain(ctx, Request{})
		errCh <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if conn.Request().Text != "" {
		t.Errorf("empty request should carry no text")
	}
	_ = conn.RespondError("nothing selected")
	_ = conn.Close()

	if err := <-errCh; err == nil || err.Error() != "nothing selected" {
		t.Fatalf("expected resident error, got %v", err)
	}
}

func TestNoResident(t *testing.T) {
	useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	delegated, _, err := NewClient().TryExplain(ctx, Request{Text: "x"})
	if err != nil || delegated {
		t.Fatalf("expected no delegation, got delegated=%v err=%v", delegated, err)
	}
	if _, ok := DetectResidentPort(ctx); ok {
		t.Fatalf("expected no resident")
	}
}

func TestDetectResidentPort(t *testing.T) {
	port := useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	startServer(t, ctx)

	got, ok := DetectResidentPort(ctx)
	if !ok || got != port {
		t.Fatalf("expected resident on %d, got %d ok=%v", port, got, ok)
	}
}

func TestSecondServerFailsToStart(t *testing.T) {
	useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	startServer(t, ctx)

	if err := NewServer().Start(ctx); err == nil {
		t.Fatal("second resident must not bind the same port")
	}
}

func TestMalformedRequestGetsError(t *testing.T) {
	port := useFreePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	startServer(t, ctx)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(residentHost, strconv.Itoa(port)), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, _ = conn.Write([]byte("STDOUT\n"))
	status, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || status != statusError {
		t.Fatalf("expected ERROR status, got %q err=%v", status, err)
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line    string
		want    Request
		wantErr bool
	}{
		{line: "EXPLAIN {}\n", want: Request{}},
		{line: `EXPLAIN {"text":"hola","language":"Spanish"}` + "\n", want: Request{Text: "hola", Language: "Spanish"}},
		{line: "EXPLAIN not-json\n", wantErr: true},
		{line: "CLIPBOARD\n", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRequest(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRequest(%q) err=%v, wantErr=%v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRequest(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestPortRangeDefaults(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "")
	t.Setenv("SINGLEINSTANCE_PORT_END", "")
	start, end := PortRange()
	if start != defaultPortStart || end != defaultPortEnd {
		t.Fatalf("unexpected range %d-%d", start, end)
	}

	t.Setenv("SINGLEINSTANCE_PORT_START", "80")
	t.Setenv("SINGLEINSTANCE_PORT_END", "70000")
	start, end = PortRange()
	if start != 1024 || end != 65535 {
		t.Fatalf("expected clamped range, got %d-%d", start, end)
	}
}

func TestPortRangeIgnoresGarbageAndSwaps(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "not-a-port")
	t.Setenv("SINGLEINSTANCE_PORT_END", "")
	start, end := PortRange()
	if start != defaultPortStart || end != defaultPortEnd {
		t.Fatalf("unexpected range %d-%d", start, end)
	}

	t.Setenv("SINGLEINSTANCE_PORT_START", "50010")
	t.Setenv("SINGLEINSTANCE_PORT_END", "50000")
	start, end = PortRange()
	if start != 50000 || end != 50010 {
		t.Fatalf("expected swapped range, got %d-%d", start, end)
	}
}

func TestPingTimeoutUsesRemainingDeadline(t *testing.T) {
	if got := pingTimeout(context.Background(), time.Second); got != time.Second {
		t.Fatalf("expected fallback without deadline, got %v", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if got := pingTimeout(ctx, time.Second); got > 50*time.Millisecond {
		t.Fatalf("expected timeout bounded by deadline, got %v", got)
	}
}

func TestDetectResidentPortStopsOnCancelledContext(t *testing.T) {
	useFreePort(t)
	srv := NewServer()
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if port, ok := DetectResidentPort(ctx); ok {
		t.Fatalf("expected no detection with a cancelled context, got port %d", port)
	}
}
