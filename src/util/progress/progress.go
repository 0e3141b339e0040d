package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Writer wraps an io.Writer and periodically writes progress updates to out.
type Writer struct {
	w           io.Writer
	out         io.Writer
	label       string
	total       int64
	written     int64
	mu          sync.Mutex
	lastPrinted time.Time
}

// NewWriter creates a new progress Writer. If total is 0, percentage is
// omitted. A nil out disables the updates but bytes are still counted.
func NewWriter(w io.Writer, total int64, label string, out io.Writer) *Writer {
	return &Writer{w: w, out: out, label: label, total: total}
}

func (p *Writer) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.mu.Lock()
		p.written += int64(n)
		now := time.Now()
		if now.Sub(p.lastPrinted) >= 200*time.Millisecond {
			p.print()
			p.lastPrinted = now
		}
		p.mu.Unlock()
	}
	return n, err
}

// Written returns the number of bytes passed through so far.
func (p *Writer) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Done prints the final state and terminates the progress line.
func (p *Writer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	p.print()
	fmt.Fprint(p.out, "\n")
}

func (p *Writer) print() {
	if p.out == nil {
		return
	}
	done := humanize.IBytes(uint64(p.written))
	if p.total > 0 {
		pct := float64(p.written) / float64(p.total) * 100
		fmt.Fprintf(p.out, "\r[%s] %.1f%% (%s/%s)", p.label, pct, done, humanize.IBytes(uint64(p.total)))
	} else {
		fmt.Fprintf(p.out, "\r[%s] %s", p.label, done)
	}
}
