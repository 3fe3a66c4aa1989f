package ssh

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/spotbuild/internal/util/keygen"
)

// TB is the subset of testing.TB (and GinkgoT) the test server needs.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// ExecHandler serves one exec request and returns its exit status.
type ExecHandler func(command string, stdin io.Reader, stdout, stderr io.Writer) uint32

// TestServer is an in-process SSH server that accepts a single client key.
type TestServer struct {
	Host      string
	Port      int
	ClientKey *keygen.KeyPair
	HostKey   *keygen.KeyPair

	mu       sync.Mutex
	commands []string
}

// Commands returns every exec command received so far.
func (s *TestServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// NewTestServer starts an SSH server on a loopback port.
func NewTestServer(t TB, handler ExecHandler) *TestServer {
	t.Helper()

	hostKey, err := keygen.GenerateEd25519KeyPair("host")
	if err != nil {
		t.Fatalf("host key: %v", err)
	}
	clientKey, err := keygen.GenerateEd25519KeyPair("client")
	if err != nil {
		t.Fatalf("client key: %v", err)
	}

	authorized := clientKey.Signer.PublicKey().Marshal()
	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown public key")
		},
	}
	config.AddHostKey(hostKey.Signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	srv := &TestServer{Host: host, Port: port, ClientKey: clientKey, HostKey: hostKey}

	go func() {
		for {
			nConn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(nConn, config, handler)
		}
	}()

	return srv
}

func (s *TestServer) serve(nConn net.Conn, config *ssh.ServerConfig, handler ExecHandler) {
	_, chans, reqs, err := ssh.NewServerConn(nConn, config)
	if err != nil {
		_ = nConn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
					_ = req.Reply(false, nil)
					continue
				}
				_ = req.Reply(true, nil)

				s.mu.Lock()
				s.commands = append(s.commands, payload.Command)
				s.mu.Unlock()

				status := handler(payload.Command, ch, ch, ch.Stderr())
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
				_ = ch.Close()
				return
			}
		}()
	}
}
