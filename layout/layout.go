package layout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/jroimartin/gocui"
)

// Commands typed faster than the node handles them wait here.
const queueSize = 64

const (
	pastCmdView = "pastcommand"
	inputView   = "input"
	loggerView  = "logger"
	manualView  = "manual"
)

// history holds the commands typed since the last redraw.
type history struct {
	lines []string
	m     sync.Mutex
}

func (h *history) push(s string) {
	h.m.Lock()
	defer h.m.Unlock()
	h.lines = append(h.lines, s)
}

func (h *history) drain() []string {
	h.m.Lock()
	defer h.m.Unlock()
	lines := h.lines
	h.lines = nil
	return lines
}

// PastCmd is the ViewManager that logs past command.
type PastCmd struct {
	name    string
	history *history
}

// Input box for command.
type Input struct {
	name    string
	queue   chan commands.Command
	history *history
}

type Logger struct {
	name string
}

type Manual struct {
	name string
	text string
}

func (pc *PastCmd) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom left corner.
	v, err := g.SetView(pc.name, 1, maxY*2/3, maxX/3, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = "History"
	v.Autoscroll = true
	v.Wrap = true
	for _, line := range pc.history.drain() {
		fmt.Fprintln(v, "> "+line)
	}
	return nil
}

func (i *Input) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom.
	v, err := g.SetView(i.name, 1, maxY-5, maxX-1, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Wrap = true
	v.Autoscroll = true
	v.Editor = i
	v.Editable = true
	return nil
}

func (l *Logger) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Right side.
	v, err := g.SetView(l.name, maxX/3+1, 1, maxX-1, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = "Log"
	v.Autoscroll = true
	v.Wrap = true
	return nil
}

func (m *Manual) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Top left corner.
	v, err := g.SetView(m.name, 1, 1, maxX/3, maxY*2/3-1)
	if err == gocui.ErrUnknownView {
		// Only written once, the manual never changes.
		v.Title = "Manual"
		v.Wrap = true
		fmt.Fprintln(v, m.text)
		return nil
	}
	return err
}

// submit parses one typed line, records it and forwards a valid command.
func (i *Input) submit(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	op, err := commands.CreateCommand(s)
	if err != nil {
		i.history.push(s + "\n" + err.Error())
		return
	}
	// If a valid command, queue it for the fullnode. Never block the UI loop.
	select {
	case i.queue <- op:
		i.history.push(s)
	default:
		i.history.push(s + "\ntoo many pending commands, dropped")
	}
}

// forward hands queued commands to cmd in the order they were typed, until ctx is done.
func forward(ctx context.Context, queue <-chan commands.Command, cmd chan<- commands.Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-queue:
			select {
			case cmd <- c:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (i *Input) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyEnter:
		// Remove \n from string.
		i.submit(strings.Replace(v.Buffer(), "\n", "", -1))

		// Reset cursor.
		v.Clear()
		v.SetOrigin(0, 0)
		v.SetCursor(0, 0)

	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	}
}

func SetFocus(name string) func(g *gocui.Gui) error {
	return func(g *gocui.Gui) error {
		_, err := g.SetCurrentView(name)
		return err
	}
}

// Create a GUI, using the command channel to pass command to fullnode until ctx is done.
// manual is shown in the top left corner.
func CreateGui(ctx context.Context, cmd chan<- commands.Command, manual string) (*gocui.Gui, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	g.Cursor = true

	h := &history{}
	pc := &PastCmd{name: pastCmdView, history: h}
	input := &Input{name: inputView, queue: make(chan commands.Command, queueSize), history: h}
	l := &Logger{name: loggerView}
	m := &Manual{name: manualView, text: manual}
	focus := gocui.ManagerFunc(SetFocus(inputView))
	g.SetManager(pc, input, l, m, focus)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		g.Close()
		return nil, err
	}

	go forward(ctx, input.queue, cmd)
	return g, nil
}

// Quit asks the main loop of g to return gocui.ErrQuit.
func Quit(g *gocui.Gui) {
	g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// LogWriter appends everything written to it to the log view. It is safe to use from any
// goroutine, the write happens on the UI loop.
type LogWriter struct {
	g *gocui.Gui
}

func NewLogWriter(g *gocui.Gui) *LogWriter {
	return &LogWriter{g: g}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	s := string(p)
	w.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(loggerView)
		if err != nil {
			// Not laid out yet.
			return nil
		}
		fmt.Fprint(v, s)
		return nil
	})
	return len(p), nil
}
