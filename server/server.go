// Package server exposes the interpreter over Connect (HTTP/JSON).
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/jpamb/interpreter/runlog"
	"github.com/jpamb/interpreter/vm"
)

var log = commonlog.GetLogger("jpamb.server")

// Server serves the interpretation service over HTTP.
type Server struct {
	mux *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	budget int
	runs   *runlog.Store
}

// WithBudget sets the default step budget for served runs.
func WithBudget(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.budget = n
		}
	}
}

// WithRunlog records every served run in the given store.
func WithRunlog(runs *runlog.Store) ServerOption {
	return func(c *serverConfig) { c.runs = runs }
}

// New creates a Server over the given program image.
func New(loader vm.Loader, opts ...ServerOption) *Server {
	cfg := &serverConfig{budget: vm.DefaultBudget}
	for _, opt := range opts {
		opt(cfg)
	}

	svc := NewInterpretService(loader, cfg.budget, cfg.runs)
	handler := connect.NewUnaryHandler(
		InterpretProcedure,
		svc.Interpret,
		connect.WithCodec(jsonCodec{}),
	)

	s := &Server{mux: http.NewServeMux()}
	s.mux.Handle(InterpretProcedure, handler)
	return s
}

// Handler returns the HTTP handler tree, for mounting in tests or other
// servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address, in the form
// "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	log.Noticef("listening on %s", addr)
	log.Noticef("Connect (HTTP/JSON): http://%s%s", addr, InterpretProcedure)
	return http.ListenAndServe(addr, s.mux)
}
