package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/wydy/robot36/sstv"
	"github.com/wydy/robot36/station"
)

const fps = 30

type scopeWindow struct {
	win  *sdl.Window
	r    *sdl.Renderer
	tex  *sdl.Texture
	rect *sdl.Rect
	w    int
	h    int

	st     *station.Station
	modes  []string
	modeAt int
	pixels []uint32
	argb   []byte
	pause  bool
	logger *log.Logger
}

func newScopeWindow(st *station.Station, sampleRate, w, h int, logger *log.Logger) (sw *scopeWindow, err error) {
	winFlags := uint32(sdl.WINDOW_SHOWN)
	if resizable {
		winFlags |= sdl.WINDOW_RESIZABLE | sdl.WINDOW_OPENGL
	}
	if popup {
		winFlags |= sdl.WINDOW_UTILITY
	}
	win, e := sdl.CreateWindow(
		fmt.Sprintf("sstvscope @ %dHz", sampleRate),
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(w*zoom),
		int32(h*zoom),
		winFlags)
	if e != nil {
		return nil, e
	}
	defer func() {
		if err != nil {
			win.Destroy()
		}
	}()

	// Disable letterboxing.
	sdl.SetHint(sdl.HINT_RENDER_LOGICAL_SIZE_MODE, "1")

	r, e := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if e != nil {
		return nil, e
	}
	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()
	if err := r.SetLogicalSize(int32(w), int32(h)); err != nil {
		return nil, err
	}
	tex, err := r.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		return nil, err
	}

	modes := []string{""}
	for _, m := range sstv.Modes(sampleRate) {
		modes = append(modes, m.Name())
	}
	modes = append(modes, sstv.RawMode(w, sampleRate).Name())
	return &scopeWindow{
		win:    win,
		r:      r,
		tex:    tex,
		rect:   &sdl.Rect{X: 0, Y: 0, W: int32(w), H: int32(h)},
		w:      w,
		h:      h,
		st:     st,
		modes:  modes,
		argb:   make([]byte, 4*w*h),
		logger: logger,
	}, nil
}

func (sw *scopeWindow) Close() {
	sw.tex.Destroy()
	sw.r.Destroy()
	sw.win.Destroy()
}

func (sw *scopeWindow) redraw() {
	if !sw.pause {
		sw.pixels, _, _ = sw.st.ScopeSnapshot(sw.pixels)
		for i, c := range sw.pixels {
			binary.LittleEndian.PutUint32(sw.argb[4*i:], c)
		}
		if err := sw.tex.Update(sw.rect, sw.argb, 4*sw.w); err != nil {
			panic(err)
		}
	}
	if err := sw.r.Copy(sw.tex, nil, nil); err != nil {
		panic(err)
	}
	sw.r.Present()
}

func (sw *scopeWindow) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / fps)
	defer ticker.Stop()
	status := sw.st.Status()
	for sw.processEvents() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		if s := sw.st.Status(); s.Mode != status.Mode || s.Locked != status.Locked {
			status = s
			title := "sstvscope"
			if s.Mode != "" {
				title += " - " + s.Mode
			}
			if s.Locked {
				title += " (locked)"
			}
			sw.win.SetTitle(title)
		}
		sw.redraw()
	}
}

// cycleMode steps through automatic detection and every mode.
func (sw *scopeWindow) cycleMode(step int) {
	sw.modeAt = (sw.modeAt + step + len(sw.modes)) % len(sw.modes)
	name := sw.modes[sw.modeAt]
	sw.st.SetMode(name)
	if name == "" {
		name = "auto"
	}
	sw.logger.Info("mode", "mode", name)
}

func (sw *scopeWindow) saveScope() {
	path := fmt.Sprintf("scope-%s.png", time.Now().Format("20060102-150405"))
	f, err := os.Create(path)
	if err != nil {
		sw.logger.Error("save scope", "err", err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, sw.st.ScopeImage()); err != nil {
		sw.logger.Error("save scope", "err", err)
		return
	}
	sw.logger.Info("saved scope", "path", path)
}

func (sw *scopeWindow) handleEvent(event sdl.Event) bool {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		return false
	case *sdl.WindowEvent:
		if sw.pause {
			sw.redraw()
		}
	case *sdl.KeyboardEvent:
		if ev.Type == sdl.KEYDOWN {
			switch ev.Keysym.Sym {
			case sdl.K_SPACE:
				sw.pause = !sw.pause
			case sdl.K_m, sdl.K_RIGHT:
				sw.cycleMode(1)
			case sdl.K_LEFT:
				sw.cycleMode(-1)
			case sdl.K_a:
				sw.modeAt = 0
				sw.cycleMode(0)
			case sdl.K_s:
				sw.saveScope()
			case sdl.K_r:
				sw.win.SetSize(int32(sw.w*zoom), int32(sw.h*zoom))
			}
		} else if ev.Type == sdl.KEYUP && ev.Keysym.Sym == sdl.K_ESCAPE {
			return false
		}
	}
	return true
}

func (sw *scopeWindow) processEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if !sw.handleEvent(event) {
			return false
		}
	}
	return true
}
