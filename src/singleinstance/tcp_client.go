package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const clientPingTimeout = 2 * time.Second

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) TryExplain(ctx context.Context, req Request) (bool, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return false, "", fmt.Errorf("failed to encode request: %w", err)
	}

	timeout := pingTimeout(ctx, clientPingTimeout)
	port, found := findResident(ctx, timeout)
	if !found {
		// Nil unless ctx cut the scan short.
		return false, "", ctx.Err()
	}
	text, err := explain(ctx, residentAddr(port), payload, timeout)
	return true, text, err
}

// explain sends one EXPLAIN request and waits for the resident to answer. The
// answer may take as long as an inference round trip, bounded only by ctx.
func explain(ctx context.Context, addr string, payload []byte, dialTimeout time.Duration) (string, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(explainPrefix + string(payload) + "\n"); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	body, err := io.ReadAll(br)
	if err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}
	switch status {
	case statusSuccess:
		return string(body), nil
	case statusError:
		return "", errors.New(string(body))
	default:
		return "", fmt.Errorf("unexpected response %q", status)
	}
}
