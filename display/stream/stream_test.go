// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

// =============================================================================
// Codec Tests
// =============================================================================

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x + y), 255})
		}
	}
	return img
}

func TestCodec_RoundTrip(t *testing.T) {
	src := testImage(17, 9)
	for _, enc := range []Encoding{Raw, Zstd} {
		t.Run(enc.String(), func(t *testing.T) {
			msg, err := Encode(src, enc)
			if err != nil {
				t.Fatal(err)
			}
			if Encoding(msg[0]) != enc {
				t.Errorf("header encoding = %d", msg[0])
			}
			got, err := Decode(msg)
			if err != nil {
				t.Fatal(err)
			}
			if got.Bounds() != src.Bounds() || string(got.Pix) != string(src.Pix) {
				t.Error("decoded image differs from source")
			}
		})
	}
}

func TestCodec_ZstdCompresses(t *testing.T) {
	flat := image.NewRGBA(image.Rect(0, 0, 256, 256))
	raw, _ := Encode(flat, Raw)
	packed, err := Encode(flat, Zstd)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) >= len(raw)/10 {
		t.Errorf("zstd message %d bytes, raw %d bytes", len(packed), len(raw))
	}
}

func TestCodec_SubImage(t *testing.T) {
	src := testImage(8, 8)
	sub := src.SubImage(image.Rect(2, 2, 6, 5)).(*image.RGBA)
	msg, err := Encode(sub, Raw)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(msg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if got.RGBAAt(0, 0) != src.RGBAAt(2, 2) || got.RGBAAt(3, 2) != src.RGBAAt(5, 4) {
		t.Error("sub-image pixels not preserved")
	}
}

func TestDecode_Malformed(t *testing.T) {
	good, _ := Encode(testImage(2, 2), Raw)
	huge := append([]byte{0}, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

	tests := []struct {
		name string
		msg  []byte
	}{
		{"short", []byte{0, 1}},
		{"truncated", good[:len(good)-1]},
		{"unknown encoding", append([]byte{7}, good[1:]...)},
		{"bad zstd", append([]byte{1}, good[1:]...)},
		{"too large", huge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.msg); !errors.Is(err, ErrBadPayload) {
				t.Errorf("Decode error = %v, want ErrBadPayload", err)
			}
		})
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", Raw, false},
		{"raw", Raw, false},
		{"ZSTD", Zstd, false},
		{"gzip", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("ParseEncoding(%q) = %v, %v", tt.in, got, err)
		}
	}
}

// =============================================================================
// Server Tests
// =============================================================================

func newTestServer(t *testing.T, opts display.Options) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Close()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Clients != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.Stats().Clients, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func solidFrame(t *testing.T, w, h int, c color.RGBA) *fractal.Frame {
	t.Helper()
	f, err := fractal.NewFrame(w, h)
	if err != nil {
		t.Fatal(err)
	}
	f.Clear(c)
	return f
}

func readFrame(t *testing.T, conn *websocket.Conn) *image.RGBA {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	typ, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("message type = %v", typ)
	}
	img, err := Decode(msg)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestServer_BroadcastEncodings(t *testing.T) {
	s, ts := newTestServer(t, display.Options{})
	raw := dial(t, ts, "?encoding=raw")
	packed := dial(t, ts, "?encoding=zstd")
	waitClients(t, s, 2)

	want := color.RGBA{10, 20, 30, 255}
	if err := s.Present(solidFrame(t, 12, 6, want), fractal.FrameInfo{Index: 1}); err != nil {
		t.Fatal(err)
	}

	for name, conn := range map[string]*websocket.Conn{"raw": raw, "zstd": packed} {
		img := readFrame(t, conn)
		if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 6 {
			t.Errorf("%s: bounds = %v", name, img.Bounds())
		}
		if got := img.RGBAAt(5, 5); got != want {
			t.Errorf("%s: pixel = %v, want %v", name, got, want)
		}
	}
}

func TestServer_MaxWidth(t *testing.T) {
	s, ts := newTestServer(t, display.Options{MaxWidth: 8})
	conn := dial(t, ts, "")
	waitClients(t, s, 1)

	if err := s.Present(solidFrame(t, 32, 16, color.RGBA{255, 255, 255, 255}), fractal.FrameInfo{}); err != nil {
		t.Fatal(err)
	}
	img := readFrame(t, conn)
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("bounds = %v, want 8x4", img.Bounds())
	}
}

func TestServer_BadEncodingRejected(t *testing.T) {
	_, ts := newTestServer(t, display.Options{})
	resp, err := http.Get(ts.URL + "/ws?encoding=gzip")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_IndexPage(t *testing.T) {
	_, ts := newTestServer(t, display.Options{})
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/ws?encoding=raw") {
		t.Error("index page does not connect to /ws")
	}

	missing, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", missing.StatusCode)
	}
}

func TestServer_PresentWithoutClients(t *testing.T) {
	s, err := New(display.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Present(solidFrame(t, 4, 4, color.RGBA{}), fractal.FrameInfo{}); err != nil {
		t.Errorf("Present() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Present(solidFrame(t, 4, 4, color.RGBA{}), fractal.FrameInfo{}); !errors.Is(err, display.ErrClosed) {
		t.Errorf("Present after Close error = %v, want ErrClosed", err)
	}
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t, display.Options{})
	conn := dial(t, ts, "")
	waitClients(t, s, 1)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Errorf("Read after Close error = %v, want going away", err)
	}
	waitClients(t, s, 0)
}

func TestClient_OfferDropsOldest(t *testing.T) {
	c := &client{frames: make(chan []byte, 1), done: make(chan struct{})}

	if c.offer([]byte("a")) {
		t.Error("first offer should not drop")
	}
	if !c.offer([]byte("b")) {
		t.Error("second offer should drop the pending frame")
	}
	if got := string(<-c.frames); got != "b" {
		t.Errorf("pending frame = %q, want newest", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(display.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.opts.Addr != DefaultAddr {
		t.Errorf("addr = %q", s.opts.Addr)
	}
	if _, err := New(display.Options{MaxWidth: -1}); err == nil {
		t.Error("negative MaxWidth should fail")
	}
	if !display.IsRegistered(display.BackendStream) {
		t.Error("stream backend not registered")
	}
}
