package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	explainPrefix = "EXPLAIN "
	statusSuccess = "SUCCESS\n"
	statusError   = "ERROR\n"

	requestReadTimeout = 3 * time.Second
)

var errServerClosed = errors.New("singleinstance: server closed")

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	lis       net.Listener
	incoming  chan *tcpConn
	done      chan struct{}
	closeOnce sync.Once
	port      int
}

func newTcpServer() *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail:
// another resident owns it.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, _ := PortRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		go s.handshake(ctx, c)
	}
}

func (s *tcpServer) handshake(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(requestReadTimeout))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	line, err := br.ReadString('\n')
	if err != nil {
		log.Printf("singleinstance: read from %s failed: %v", remote, err)
		_ = c.Close()
		return
	}
	if line == pingRequest {
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return
	}

	req, err := parseRequest(line)
	if err != nil {
		log.Printf("singleinstance: bad request from %s: %v", remote, err)
		_, _ = bw.WriteString(statusError + err.Error())
		_ = bw.Flush()
		_ = c.Close()
		return
	}
	_ = c.SetDeadline(time.Time{})
	log.Printf("singleinstance: EXPLAIN from %s (text=%d chars, language=%q)", remote, len(req.Text), req.Language)

	select {
	case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
	case <-s.done:
		_ = c.Close()
	case <-ctx.Done():
		_ = c.Close()
	}
}

func parseRequest(line string) (Request, error) {
	if !strings.HasPrefix(line, explainPrefix) {
		return Request{}, fmt.Errorf("unknown command %q", strings.TrimSpace(line))
	}
	var req Request
	payload := strings.TrimSpace(strings.TrimPrefix(line, explainPrefix))
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return Request{}, fmt.Errorf("invalid request payload: %w", err)
	}
	return req, nil
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errServerClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c  net.Conn
	r  Request
	w  *bufio.Writer
	mu sync.Mutex
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(text string) error {
	return tc.respond(statusSuccess + text)
}

func (tc *tcpConn) RespondError(msg string) error {
	return tc.respond(statusError + msg)
}

func (tc *tcpConn) respond(payload string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, err := tc.w.WriteString(payload); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
