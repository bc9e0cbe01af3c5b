package singleinstance

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

const detectPingTimeout = 300 * time.Millisecond

// DetectResidentPort returns the port of a running resident, if any.
func DetectResidentPort(ctx context.Context) (int, bool) {
	return findResident(ctx, pingTimeout(ctx, detectPingTimeout))
}

// pingTimeout is fallback, shortened to whatever remains of ctx.
func pingTimeout(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && left < fallback {
			return left
		}
	}
	return fallback
}

// findResident walks the port range and stops at the first listener that
// answers PING, or when ctx ends.
func findResident(ctx context.Context, timeout time.Duration) (int, bool) {
	start, end := PortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// ping reports whether addr speaks our protocol.
func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
