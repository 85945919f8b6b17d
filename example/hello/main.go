// SPDX-License-Identifier: Unlicense OR MIT

// Command hello opens a window, draws a greeting with an uptime counter
// and exits when the window's close button is pressed.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/fenestra-ui/fenestra/app"
	"github.com/fenestra-ui/fenestra/geom"
)

const (
	keyWindow app.Key = iota
	keyTick
)

func main() {
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	el, err := app.NewEventLoop(app.WithLogger(log))
	if err != nil {
		log.Err().Err(err).Log("creating event loop")
		os.Exit(1)
	}
	defer el.Close()

	hello := &helloTask{log: log}
	h := el.Spawn(hello)
	h.With(func(_ app.Task, cx *app.Context) {
		hello.win, err = app.OpenWindow(cx, keyWindow,
			app.Title("Hello"),
			app.WindowSize(geom.Sz(400, 240)),
		)
		if err != nil {
			return
		}
		if _, err = app.Repeat(time.Second, cx, keyTick); err != nil {
			return
		}
		hello.win.Show()
	})
	if err != nil {
		log.Err().Err(err).Log("setting up window")
		os.Exit(1)
	}

	if err := el.Run(); err != nil {
		log.Err().Err(err).Log("event loop failed")
		os.Exit(1)
	}
}

type helloTask struct {
	log     *logiface.Logger[logiface.Event]
	win     *app.Window
	seconds int
}

func (h *helloTask) Event(cx *app.Context, key app.Key, ev app.Event) app.Response {
	switch ev := ev.(type) {
	case app.ExposeEvent:
		h.win.PresentPartial(h.render(), ev.Rects)
		return app.Capture
	case app.TimerEvent:
		h.seconds++
		h.win.Present(h.render())
		return app.Capture
	case app.MouseDownEvent:
		h.log.Info().
			Int("button", int(ev.Button)).
			Log("mouse down")
		return app.Capture
	case app.CloseEvent:
		h.log.Info().Log("close requested, exiting")
		cx.EventLoop().Exit()
		return app.Capture
	}
	return app.Ignore
}

// render draws the greeting at the window's physical pixel size.
func (h *helloTask) render() app.Bitmap {
	scale := h.win.Scale()
	sz := h.win.Size().Scale(scale)
	w, ht := int(math.Round(sz.Width)), int(math.Round(sz.Height))

	img := image.NewRGBA(image.Rect(0, 0, w, ht))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x28, G: 0x2c, B: 0x34, A: 0xff}), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(20*scale), int(30*scale)),
	}
	d.DrawString(fmt.Sprintf("Hello from fenestra! Up %ds.", h.seconds))

	pixels := make([]uint32, w*ht)
	for i := 0; i < len(pixels); i++ {
		o := i * 4
		r, g, b, a := img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]
		pixels[i] = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
	return app.NewBitmap(pixels, w, ht)
}
