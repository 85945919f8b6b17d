// SPDX-License-Identifier: Unlicense OR MIT

package app

import "github.com/fenestra-ui/fenestra/geom"

// Surface is a window's pixel buffer. It is allocated at the window's
// physical size (logical size times backing scale) when the window is
// created and reallocated only when the window is resized, never by
// Present.
//
// Pixels are packed 0xAARRGGBB, rows top to bottom with no padding.
type Surface interface {
	// Size returns the buffer dimensions in physical pixels.
	Size() (width, height int)
	// Resize reallocates the buffer. Contents after Resize are undefined.
	Resize(width, height int)
	// Lock returns the pixel buffer for writing. The buffer is valid until
	// Unlock.
	Lock() []uint32
	Unlock()
	// Present flushes the buffer to the screen. rects are in physical
	// pixels; nil flushes everything.
	Present(rects []geom.Rect)
}

// memSurface is the Surface of the headless backend and the in-memory half
// of the native ones. It tracks allocations and presents so tests can
// assert on them.
type memSurface struct {
	width, height int
	pixels        []uint32
	locked        bool

	allocs   int
	presents int
	// damage is the rect list of the most recent Present, nil for a full
	// flush.
	damage []geom.Rect

	// flush, when set, performs the native blit.
	flush func(rects []geom.Rect)
}

func newMemSurface(width, height int) *memSurface {
	s := &memSurface{}
	s.Resize(width, height)
	return s
}

func (s *memSurface) Size() (int, int) {
	return s.width, s.height
}

func (s *memSurface) Resize(width, height int) {
	if width < 0 || height < 0 {
		panic("app: surface dimensions must be non-negative")
	}
	s.width, s.height = width, height
	s.pixels = make([]uint32, width*height)
	s.allocs++
}

func (s *memSurface) Lock() []uint32 {
	if s.locked {
		panic("app: surface already locked")
	}
	s.locked = true
	return s.pixels
}

func (s *memSurface) Unlock() {
	if !s.locked {
		panic("app: surface not locked")
	}
	s.locked = false
}

func (s *memSurface) Present(rects []geom.Rect) {
	if s.locked {
		panic("app: present with surface locked")
	}
	s.presents++
	s.damage = rects
	if s.flush != nil {
		s.flush(rects)
	}
}
