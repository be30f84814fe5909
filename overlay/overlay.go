// Package overlay runs blocking, interactive functions behind a pseudo tab.
//
// The function runs on its own goroutine and talks to the user through a
// Console. It never touches the window; when it returns the overlay removes
// itself by posting to the window's event queue.
package overlay

import (
	"io"
	"sync"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/mux"
	"github.com/Gskartwii/wezterm/term"
	"github.com/Gskartwii/wezterm/window"
)

// Func is the body of an overlay. It owns console until it returns.
type Func[T any] func(tabID mux.TabID, console *Console) (T, error)

// Console is the overlay function's side of the pseudo tab. Reads return
// what the user types; writes are drawn on the overlay terminal.
type Console struct {
	in     *io.PipeReader
	out    term.Terminal
	events *window.EventQueue
}

func (c *Console) Read(p []byte) (int, error) { return c.in.Read(p) }

// Write hands p to the window's owner goroutine, which applies it to the
// overlay terminal. It fails with io.ErrClosedPipe once the window is gone.
func (c *Console) Write(p []byte) (int, error) {
	data := append([]byte(nil), p...)
	out := c.out
	if !c.events.Post(func(*window.TerminalWindow) { out.Write(data) }) {
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

// Size returns the overlay terminal size.
func (c *Console) Size() (rows, cols int) { return c.out.Rows(), c.out.Cols() }

// virtualPty is the window's side of the pseudo tab. Input written to it
// reaches the Console; it produces no output of its own.
type virtualPty struct {
	in     *io.PipeWriter
	closed chan struct{}
	once   sync.Once
}

func (p *virtualPty) Read([]byte) (int, error) {
	<-p.closed
	return 0, io.EOF
}

func (p *virtualPty) Write(b []byte) (int, error) { return p.in.Write(b) }

// Resize is a no-op; the window resizes the overlay terminal itself.
func (p *virtualPty) Resize(int, int, int, int) error { return nil }

// Close ends the console's input with io.EOF.
func (p *virtualPty) Close() error {
	p.once.Do(func() {
		close(p.closed)
		p.in.Close()
	})
	return nil
}

// process stands in for a child; it exits when the overlay function returns.
type process struct {
	done chan struct{}
}

func (p *process) TryWait() (bool, error) {
	select {
	case <-p.done:
		return true, nil
	default:
		return false, nil
	}
}

// Kill does nothing. An overlay function stops by returning, typically
// after its input is closed.
func (p *process) Kill() error { return nil }

// StartOverlay creates a pseudo tab the size of tab and runs fn on a new
// goroutine. It must be called on the window's owner goroutine, which
// should then pass the returned tab to ShowOverlay. When fn returns the
// overlay is scheduled for removal and then the future resolves.
func StartOverlay[T any](w *window.TerminalWindow, tab *mux.Tab, fn Func[T]) (*mux.Tab, *Future[T], error) {
	src := tab.Terminal()
	vt, err := term.New(src.Rows(), src.Cols(), 0, nil)
	if err != nil {
		return nil, nil, err
	}

	r, pw := io.Pipe()
	vpty := &virtualPty{in: pw, closed: make(chan struct{})}
	proc := &process{done: make(chan struct{})}
	pseudo := mux.NewTab(vt, proc, vpty)
	console := &Console{in: r, out: vt, events: w.Events()}

	future := newFuture[T]()
	id := tab.ID()
	go func() {
		v, err := fn(id, console)
		r.Close()
		close(proc.done)
		if err != nil {
			wezterm.Logger().Debug("overlay finished with error", "tab", id, "err", err)
		}
		w.ScheduleCancelOverlay(id)
		future.resolve(v, err)
	}()
	return pseudo, future, nil
}
