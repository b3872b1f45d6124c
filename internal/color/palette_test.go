// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package color

import "testing"

func TestGray(t *testing.T) {
	tests := []struct {
		name          string
		iter, maxIter int
		want          uint8
	}{
		{"escaped immediately", 0, 50, 0},
		{"inside set", 50, 50, 0},
		{"half way", 25, 50, 127},
		{"one before limit", 49, 50, 249},
		{"one of two", 1, 2, 127},
		{"zero limit", 0, 0, 0},
		{"negative limit", 3, -1, 0},
		{"over limit", 60, 50, 0},
		{"negative iter", -4, 50, 0},
		{"large limit", 1 << 20, 1<<20 + 1, 254},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Gray(tt.iter, tt.maxIter)
			if c.R != tt.want || c.G != tt.want || c.B != tt.want {
				t.Errorf("Gray(%d, %d) = %v, want gray %d", tt.iter, tt.maxIter, c, tt.want)
			}
			if c.A != 255 {
				t.Errorf("alpha = %d, want 255", c.A)
			}
		})
	}
}

func TestGray_MaxIterOne(t *testing.T) {
	// With maxIter 1 every pixel is either 0 or the limit: all black.
	for iter := 0; iter <= 1; iter++ {
		if c := Gray(iter, 1); c != Black {
			t.Errorf("Gray(%d, 1) = %v, want black", iter, c)
		}
	}
}

func TestPalette_MatchesGray(t *testing.T) {
	for _, maxIter := range []int{0, 1, 2, 50, 255, 1000} {
		p := NewGrayPalette(maxIter)
		if p.MaxIter() != maxIter {
			t.Fatalf("MaxIter() = %d, want %d", p.MaxIter(), maxIter)
		}
		for iter := -1; iter <= maxIter+1; iter++ {
			if got, want := p.At(iter), Gray(iter, maxIter); got != want {
				t.Fatalf("maxIter %d: At(%d) = %v, want %v", maxIter, iter, got, want)
			}
		}
	}
}

func TestPalette_Monotonic(t *testing.T) {
	p := NewGrayPalette(300)
	prev := uint8(0)
	for iter := 0; iter < 300; iter++ {
		g := p.At(iter).R
		if g < prev {
			t.Fatalf("gray decreased at %d: %d < %d", iter, g, prev)
		}
		prev = g
	}
}

func TestPalette_LargeLimitWithoutTable(t *testing.T) {
	p := NewGrayPalette(MaxTableSize + 10)
	if p.table != nil {
		t.Error("palette above MaxTableSize should not build a table")
	}
	if got := p.At(MaxTableSize + 10); got != Black {
		t.Errorf("At(limit) = %v, want black", got)
	}
	if got := p.At(1); got.A != 255 {
		t.Errorf("At(1) alpha = %d", got.A)
	}
}

func TestPalette_NegativeLimit(t *testing.T) {
	p := NewGrayPalette(-3)
	if p.MaxIter() != 0 {
		t.Errorf("MaxIter() = %d, want 0", p.MaxIter())
	}
	if got := p.At(0); got != Black {
		t.Errorf("At(0) = %v, want black", got)
	}
}

func TestPalette_Put(t *testing.T) {
	p := NewGrayPalette(50)
	dst := make([]uint8, 4)
	p.Put(dst, 25)
	want := []uint8{127, 127, 127, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Put = %v, want %v", dst, want)
		}
	}
}

func BenchmarkPalette_At(b *testing.B) {
	p := NewGrayPalette(1000)
	var sink RGBA
	for i := 0; b.Loop(); i++ {
		sink = p.At(i % 1001)
	}
	_ = sink
}

func BenchmarkGray(b *testing.B) {
	var sink RGBA
	for i := 0; b.Loop(); i++ {
		sink = Gray(i%1001, 1000)
	}
	_ = sink
}
