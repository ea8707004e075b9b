package kv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respServer speaks just enough RESP2 for OpenRedis: PING, SUBSCRIBE and error replies for the
// rest. When rejectSubscribe is set it drops the connection instead of confirming a SUBSCRIBE.
type respServer struct {
	ln              net.Listener
	rejectSubscribe bool
	subscribes      atomic.Int32
	wg              sync.WaitGroup
}

func startRESPServer(t *testing.T, rejectSubscribe bool) *respServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &respServer{ln: ln, rejectSubscribe: rejectSubscribe}
	s.wg.Add(1)
	go s.accept()

	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *respServer) url() string {
	return "redis://" + s.ln.Addr().String()
}

func (s *respServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *respServer) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	rd := bufio.NewReader(conn)
	for {
		args, err := readCommand(rd)
		if err != nil {
			return
		}

		switch strings.ToUpper(args[0]) {
		case "PING":
			io.WriteString(conn, "+PONG\r\n")
		case "SUBSCRIBE":
			s.subscribes.Add(1)
			if s.rejectSubscribe {
				return
			}
			for i, channel := range args[1:] {
				fmt.Fprintf(conn, "*3\r\n$9\r\nsubscribe\r\n$%d\r\n%s\r\n:%d\r\n", len(channel), channel, i+1)
			}
		default:
			io.WriteString(conn, "-ERR unknown command\r\n")
		}
	}
}

func readCommand(rd *bufio.Reader) ([]string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("bad array header %q", line)
	}

	args := make([]string, 0, n)
	for range n {
		header, err := rd.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "$")))
		if err != nil {
			return nil, fmt.Errorf("bad bulk header %q", header)
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func TestOpenRedisWaitsForSubscription(t *testing.T) {
	srv := startRESPServer(t, false)

	r, err := OpenRedis(context.Background(), srv.url(), "test")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, srv.subscribes.Load(), int32(1))
	require.NoError(t, r.Close())
}

func TestOpenRedisFailsWhenSubscriptionIsNotConfirmed(t *testing.T) {
	srv := startRESPServer(t, true)

	_, err := OpenRedis(context.Background(), srv.url(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe to test:kv:changes")
	assert.GreaterOrEqual(t, srv.subscribes.Load(), int32(1))
}
