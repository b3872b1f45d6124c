// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Encoding selects how frame pixels are carried in a message.
type Encoding uint8

const (
	// Raw sends the RGBA bytes unchanged.
	Raw Encoding = iota

	// Zstd compresses the RGBA bytes with zstd.
	Zstd
)

// String returns the query parameter value for e.
func (e Encoding) String() string {
	switch e {
	case Raw:
		return "raw"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// ErrBadPayload is returned by Decode for malformed messages.
var ErrBadPayload = errors.New("stream: malformed frame payload")

// ParseEncoding parses the encoding query parameter. Empty means Raw.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return Raw, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("stream: unknown encoding %q", s)
	}
}

// maxPixels bounds the frame size accepted by Decode.
const maxPixels = 1 << 26

// headerSize is the message header: encoding byte, then width and height
// as big-endian uint32.
const headerSize = 9

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Encode builds one frame message.
func Encode(img *image.RGBA, enc Encoding) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := img.Pix
	if img.Stride != w*4 || len(pix) != w*h*4 {
		pix = make([]byte, 0, w*h*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			pix = append(pix, img.Pix[off:off+w*4]...)
		}
	}

	header := make([]byte, headerSize, headerSize+len(pix))
	header[0] = byte(enc)
	binary.BigEndian.PutUint32(header[1:5], uint32(w)) //nolint:gosec // image sizes are non-negative
	binary.BigEndian.PutUint32(header[5:9], uint32(h)) //nolint:gosec // image sizes are non-negative

	switch enc {
	case Raw:
		return append(header, pix...), nil
	case Zstd:
		e, err := encoder()
		if err != nil {
			return nil, fmt.Errorf("stream: zstd encoder: %w", err)
		}
		return e.EncodeAll(pix, header), nil
	default:
		return nil, fmt.Errorf("stream: unknown encoding %v", enc)
	}
}

// Decode parses a frame message produced by Encode.
func Decode(msg []byte) (*image.RGBA, error) {
	if len(msg) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadPayload, len(msg))
	}
	enc := Encoding(msg[0])
	w := int(binary.BigEndian.Uint32(msg[1:5]))
	h := int(binary.BigEndian.Uint32(msg[5:9]))
	body := msg[headerSize:]
	if w > maxPixels || h > maxPixels || w*h > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d frame too large", ErrBadPayload, w, h)
	}

	var pix []byte
	switch enc {
	case Raw:
		pix = body
	case Zstd:
		d, err := decoder()
		if err != nil {
			return nil, fmt.Errorf("stream: zstd decoder: %w", err)
		}
		pix, err = d.DecodeAll(body, make([]byte, 0, w*h*4))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
	default:
		return nil, fmt.Errorf("%w: encoding %d", ErrBadPayload, msg[0])
	}

	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("%w: %dx%d frame with %d bytes", ErrBadPayload, w, h, len(pix))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img, nil
}
