// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package control exposes a running bridge over HTTP on a Unix socket so the
// CLI can query status, reset the session, or stop the process.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/xdg"
)

// Error codes for control socket failures.
const (
	CodeSocket      = "CONTROL_SOCKET"
	CodeUnreachable = "CONTROL_UNREACHABLE"
	CodeBadResponse = "CONTROL_BAD_RESPONSE"
)

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is returned by the /status endpoint.
type StatusResponse struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Component     string        `json:"component,omitempty"`
	Ready         bool          `json:"ready"`
	Bridge        bridge.Status `json:"bridge"`
	AgentAttached bool          `json:"agent_attached"`
}

// ActionResponse is returned by /shutdown and /reset.
type ActionResponse struct {
	Message string `json:"message"`
}

// Hooks connects the socket to the running process. Nil hooks are skipped.
type Hooks struct {
	Status   func() bridge.Status
	Ready    func() bool
	Attached func() bool
	Reset    func()
	Shutdown func()
}

// Server runs HTTP over a Unix socket for process management.
type Server struct {
	component  string
	startTime  time.Time
	listener   net.Listener
	httpServer *http.Server
	socketPath string
	hooks      Hooks
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer creates a control socket server for component.
func NewServer(component string, hooks Hooks, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		component: component,
		startTime: time.Now(),
		hooks:     hooks,
		logger:    logger.With("component", component),
	}
	s.running.Store(true)
	return s
}

// SocketPath returns $XDG_RUNTIME_DIR/bwbridge/bwbridge-<component>.sock.
func SocketPath(component string) (string, error) {
	runtimeDir, err := xdg.RuntimeDir()
	if err != nil {
		return "", oops.Code(CodeSocket).Wrapf(err, "get runtime directory")
	}
	return filepath.Join(runtimeDir, fmt.Sprintf("bwbridge-%s.sock", component)), nil
}

// Path returns the socket path once started.
func (s *Server) Path() string { return s.socketPath }

// Handler returns the socket's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	mux.HandleFunc("POST /reset", s.handleReset)
	return mux
}

// Start listens on SocketPath(component), replacing any stale socket file.
func (s *Server) Start() error {
	path, err := SocketPath(s.component)
	if err != nil {
		return err
	}
	ln, err := listenUnix(path)
	if err != nil {
		return err
	}
	s.socketPath, s.listener = path, ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control socket server error", "error", err)
		}
	}()

	s.logger.Debug("control socket listening", "path", path)
	return nil
}

// listenUnix opens an owner-only socket at path.
func listenUnix(path string) (net.Listener, error) {
	fail := func(err error, msg string) error {
		return oops.Code(CodeSocket).With("path", path).Wrapf(err, "%s", msg)
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fail(err, "create runtime directory")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fail(err, "remove existing socket")
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fail(err, "listen on socket")
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fail(err, "set socket permissions")
	}
	return ln, nil
}

// Stop shuts the server down and removes the socket file. It is safe to call
// without Start.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return oops.Code(CodeSocket).Wrapf(err, "shutdown control socket")
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("failed to close control socket listener", "error", err)
		}
	}
	if s.socketPath == "" {
		return nil
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove control socket file", "path", s.socketPath, "error", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, "health", HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Running:       s.running.Load(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Component:     s.component,
		Ready:         s.hooks.Ready == nil || s.hooks.Ready(),
	}
	if s.hooks.Status != nil {
		resp.Bridge = s.hooks.Status()
	}
	if s.hooks.Attached != nil {
		resp.AgentAttached = s.hooks.Attached()
	}
	s.reply(w, "status", resp)
}

// handleShutdown answers before triggering shutdown so the caller gets a reply.
func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, "shutdown", ActionResponse{Message: "shutdown initiated"})
	if s.hooks.Shutdown != nil {
		go s.hooks.Shutdown()
	}
}

// handleReset asks the bridge to drop the current session; it is applied on
// the next tick.
func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if s.hooks.Reset == nil {
		s.reply(w, "reset", ActionResponse{Message: "reset unsupported"})
		return
	}
	s.hooks.Reset()
	s.reply(w, "reset", ActionResponse{Message: "reset requested"})
}

func (s *Server) reply(w http.ResponseWriter, endpoint string, v any) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		s.logger.Error("failed to write control response", "endpoint", endpoint, "error", err)
	}
}

// writeJSON writes a JSON response with the given status code.
//
//nolint:unparam // every endpoint answers 200 today
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return oops.Code(CodeBadResponse).Wrapf(err, "encode JSON response")
	}
	return nil
}
