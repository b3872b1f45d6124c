// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package stream broadcasts frames to browsers over websockets.
//
// Every connected client gets the most recent frame; a slow client skips
// frames instead of slowing down the renderer. Clients choose the wire
// encoding with the "encoding" query parameter ("raw" or "zstd") on the
// /ws endpoint. The root path serves a minimal viewer page.
//
//	s, _ := stream.New(display.Options{Addr: ":8080"})
//	go s.ListenAndServe()
//	e, _ := fractal.New(800, 600, fractal.WithDisplay(s))
package stream

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

func init() {
	display.Register(display.BackendStream, func(opts display.Options) (fractal.Display, error) {
		s, err := New(opts)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := s.ListenAndServe(); err != nil {
				fractal.Logger().Error("stream: server stopped", "err", err)
			}
		}()
		return s, nil
	})
}

//go:embed index.html
var indexPage []byte

// DefaultAddr is used when Options.Addr is empty.
const DefaultAddr = ":8080"

// writeTimeout bounds a single websocket write.
const writeTimeout = 5 * time.Second

// Stats counts broadcast activity.
type Stats struct {
	Clients int
	Sent    uint64
	Dropped uint64
}

// Server is a Display that sends every presented frame to all connected
// websocket clients.
type Server struct {
	opts    display.Options
	origins []string

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	httpSrv *http.Server

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type client struct {
	encoding Encoding
	frames   chan []byte
	done     chan struct{}
}

// offer queues msg, replacing a frame the client has not sent yet.
// It reports whether a frame was dropped.
func (c *client) offer(msg []byte) (dropped bool) {
	for {
		select {
		case c.frames <- msg:
			return dropped
		default:
		}
		select {
		case <-c.frames:
			dropped = true
		default:
		}
	}
}

// New returns a server for opts. origins are extra host patterns allowed
// to connect from other origins; same-origin requests are always allowed.
func New(opts display.Options, origins ...string) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxWidth < 0 {
		return nil, fmt.Errorf("stream: negative max width %d", opts.MaxWidth)
	}
	return &Server{
		opts:    opts,
		origins: origins,
		clients: make(map[*client]struct{}),
	}, nil
}

// Handler returns the HTTP handler serving the viewer and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexPage)
	})
	return mux
}

// ListenAndServe listens on Options.Addr and serves until Close.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return s.Serve(l)
}

// Serve serves on l until Close.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return display.ErrClosed
	}
	s.httpSrv = srv
	s.mu.Unlock()

	fractal.Logger().Info("stream: listening", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	enc, err := ParseEncoding(r.URL.Query().Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		fractal.Logger().Warn("stream: accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	c := s.add(enc)
	if c == nil {
		_ = conn.Close(websocket.StatusGoingAway, "server closed")
		return
	}
	defer s.remove(c)

	fractal.Logger().Info("stream: client connected", "remote", r.RemoteAddr, "encoding", enc)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			fractal.Logger().Info("stream: client disconnected", "remote", r.RemoteAddr)
			return
		case <-c.done:
			_ = conn.Close(websocket.StatusGoingAway, "server closed")
			return
		case msg := <-c.frames:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageBinary, msg)
			cancel()
			if err != nil {
				fractal.Logger().Warn("stream: write failed", "remote", r.RemoteAddr, "err", err)
				return
			}
			s.sent.Add(1)
		}
	}
}

func (s *Server) add(enc Encoding) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	c := &client{
		encoding: enc,
		frames:   make(chan []byte, 1),
		done:     make(chan struct{}),
	}
	s.clients[c] = struct{}{}
	return c
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// Present implements fractal.Display. It encodes the frame once per
// encoding in use and never blocks on clients.
func (s *Server) Present(f *fractal.Frame, _ fractal.FrameInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return display.ErrClosed
	}
	if len(s.clients) == 0 {
		return nil
	}

	img := display.Scale(f.RGBA(), s.opts.MaxWidth)
	var msgs [2][]byte
	for c := range s.clients {
		msg := msgs[c.encoding]
		if msg == nil {
			var err error
			msg, err = Encode(img, c.encoding)
			if err != nil {
				return err
			}
			msgs[c.encoding] = msg
		}
		if c.offer(msg) {
			s.dropped.Add(1)
		}
	}
	return nil
}

// Stats returns broadcast counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	return Stats{Clients: n, Sent: s.sent.Load(), Dropped: s.dropped.Load()}
}

// Close disconnects every client and stops the HTTP server if Serve was
// called. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c := range s.clients {
		close(c.done)
	}
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
