package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws a set of status lines at a fixed frequency. When
// stdout is not a terminal the lines are only printed once, on Stop.
// Report output goes through Write so the status lines never redraw over it.
type TerminalPrinter struct {
	outputs   []*ParallelOutput
	frequency time.Duration
	doneCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
	live      bool
	started   bool

	// running is true while the redraw loop owns the terminal
	mu      sync.Mutex
	running bool

	writer  *uilive.Writer
	writers []io.Writer
	out     io.Writer
}

func NewTerminalPrinter(frequency time.Duration) *TerminalPrinter {
	return &TerminalPrinter{
		outputs:   make([]*ParallelOutput, 0),
		frequency: frequency,
		doneCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		live:      IsTerminal(os.Stdout),

		writer:  uilive.New(),
		writers: make([]io.Writer, 0),
		out:     os.Stdout,
	}
}

func (p *TerminalPrinter) NewOutput() *ParallelOutput {
	out := NewParallelOutput()
	p.outputs = append(p.outputs, out)
	p.writers = append(p.writers, p.writer.Newline())
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	if !p.live {
		return
	}
	p.started = true
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	p.writer.Start()
	go func() {
		defer close(p.stoppedCh)
		for {
			select {
			case <-p.doneCh:
				p.print()
				p.halt()
				return
			case <-ctx.Done():
				p.halt()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

func (p *TerminalPrinter) halt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer.Stop()
	p.running = false
}

// Stop ends the redraw loop and returns once the last status lines are on
// screen.
func (p *TerminalPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.doneCh)
		if !p.live {
			for _, output := range p.outputs {
				fmt.Fprintln(p.out, output.Get())
			}
			return
		}
		if p.started {
			<-p.stoppedCh
		}
	})
}

// Write prints out above the status lines. Once the printer is stopped it
// goes straight to stdout.
func (p *TerminalPrinter) Write(out string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		fmt.Fprint(p.writer.Bypass(), out)
		return
	}
	fmt.Fprint(p.out, out)
}

// Bypass returns a writer that goes through Write, for loggers that share the
// terminal with the status lines.
func (p *TerminalPrinter) Bypass() io.Writer {
	return bypassWriter{p}
}

type bypassWriter struct {
	p *TerminalPrinter
}

func (b bypassWriter) Write(bs []byte) (int, error) {
	b.p.Write(string(bs))
	return len(bs), nil
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		fmt.Fprint(p.writers[i], output.Get()+"\n")
	}
	p.writer.Flush()
}

// IsLive reports whether the status lines are redrawn in place.
func (p *TerminalPrinter) IsLive() bool {
	return p.live
}

// ParallelOutput holds one status line that workers update concurrently
type ParallelOutput struct {
	mu        *sync.Mutex
	printable string
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
