// Command termview runs an engine in-process and draws it in the terminal.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/scene"
)

const (
	redrawEvery  = 33 * time.Millisecond
	deleteRadius = 4 // terminal cells
)

type viewer struct {
	screen tcell.Screen
	eng    *engine.Engine
	view   viewport
}

func newViewer(screen tcell.Screen, eng *engine.Engine) *viewer {
	v := &viewer{screen: screen, eng: eng}
	v.resize()
	return v
}

func (v *viewer) resize() {
	cols, rows := v.screen.Size()
	cfg := v.eng.Config()
	// Last row is the status line.
	v.view = newViewport(cols, rows-1, cfg.WorldWidth, cfg.WorldHeight)
}

func (v *viewer) draw() {
	v.screen.Clear()
	f := v.eng.Latest()

	wall := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, s := range v.eng.Segments() {
		segmentCells(v.view, s, func(col, row int) {
			v.screen.SetContent(col, row, '#', nil, wall)
		})
	}

	r := rasterize(v.view, f)
	for k, n := range r.count {
		if n == 0 {
			continue
		}
		style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
		if c := r.color[k]; c != 0 {
			style = tcell.StyleDefault.Foreground(tcell.NewHexColor(int32(c & 0xffffff)))
		}
		v.screen.SetContent(k%v.view.cols, k/v.view.cols, shade(n, r.max), nil, style)
	}

	c := v.eng.Controls()
	status := fmt.Sprintf(" step %d  t=%.3f  n=%d/%d  force=%s  dt=%g",
		f.Step, f.Clock, len(f.Particles), f.Capacity, c.ForceMode(), c.DT())
	if c.Paused() {
		status += "  [paused]"
	}
	if c.Quickstep() {
		status += "  [quickstep]"
	}
	status += "  space:pause s:step q:quick 0-7:force esc:quit"
	bar := tcell.StyleDefault.Reverse(true)
	for i, ch := range []rune(status) {
		v.screen.SetContent(i, v.view.rows, ch, nil, bar)
	}
	v.screen.Show()
}

// handleInput returns false when the viewer should exit.
func (v *viewer) handleInput(ev tcell.Event) bool {
	c := v.eng.Controls()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch r := ev.Rune(); {
		case r == ' ':
			c.TogglePause()
		case r == 's':
			c.Step()
		case r == 'q':
			c.SetQuickstep(!c.Quickstep())
		case r >= '0' && r <= '7':
			c.SetForceMode(engine.ForceMode(r - '0'))
		}
	case *tcell.EventMouse:
		col, row := ev.Position()
		p := v.view.center(col, row)
		switch {
		case ev.Buttons()&tcell.Button1 != 0:
			c.SetPoint(p.X, p.Y)
		case ev.Buttons()&tcell.Button2 != 0:
			c.RequestDelete(p.X, p.Y, deleteRadius*v.view.sx)
		}
	case *tcell.EventResize:
		v.resize()
		v.screen.Sync()
	}
	return true
}

func (v *viewer) run() {
	ticker := time.NewTicker(redrawEvery)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.handleInput(ev) {
				return
			}
		case <-ticker.C:
			v.draw()
		}
	}
}

func main() {
	godotenv.Load()
	cfg := config.LoadSim()

	setup, err := scene.Build(cfg.Scene, cfg)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}
	eng, err := engine.New(cfg, setup)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to init screen: %v", err)
	}
	screen.EnableMouse()

	// Engine logs would scribble over the screen.
	if f, err := os.OpenFile("termview.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	if err := eng.Start(); err != nil {
		screen.Fini()
		log.Fatalf("Failed to start engine: %v", err)
	}

	newViewer(screen, eng).run()

	eng.Stop()
	screen.Fini()
}
