package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/picodegallo/gallo/wire"
)

// ServerConfig configures the development server.
type ServerConfig struct {
	Addr string `help:"Listen address for the bridge server" default:"127.0.0.1:3107" env:"GALLO_SERVE_ADDR"`
}

// Server exposes one Dispatcher on a TCP listener, standing in for the
// USB function when developing against simulated buses. The device
// tracks a single connection state, so connections are served strictly
// one after another: a second client waits until the first disconnects.
type Server struct {
	config     *ServerConfig
	dispatcher *Dispatcher
	logger     *slog.Logger
	ready      chan struct{}
	readyOnce  sync.Once
	ln         net.Listener
	mu         sync.Mutex
}

// NewServer builds a Server around an existing Dispatcher.
func NewServer(config ServerConfig, d *Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		config:     &config,
		dispatcher: d,
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// ListenAndServe binds the listen address and serves connections until
// Close is called or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("bridge server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("bridge server stopped")
				return nil
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		s.logger.Info("host connected", "remote", c.RemoteAddr())
		err = s.dispatcher.Serve(ctx, wire.NewStreamConn(c))
		if isHostDisconnect(err) {
			s.logger.Info("host disconnected")
		} else if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("connection handler error", "error", err)
		}
		_ = c.Close()
	}
}

// Ready returns a channel that is closed once the server has bound its
// listen address.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address, or empty before Ready.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func isHostDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe")
}
