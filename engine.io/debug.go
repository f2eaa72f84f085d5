package eio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kamros/sio/internal/sync"
	"github.com/xiegeo/coloredgoroutine"
)

// Debugger is the logging sink every Engine.IO component writes
// trace-level activity to. WithContext and WithDynamicContext let a
// component (a socket, a transport) scope its lines with a fixed or
// computed prefix without threading a logger field through every call.
type Debugger interface {
	Log(main string, v ...any)
	WithContext(context string) Debugger
	WithDynamicContext(context string, dynamicContext func() string) Debugger
}

// NewNoopDebugger returns a Debugger that discards everything. This is
// the default; debug output is opt-in.
func NewNoopDebugger() Debugger { return noopDebugger{} }

type noopDebugger struct{}

func (noopDebugger) Log(main string, v ...any)                           {}
func (d noopDebugger) WithContext(context string) Debugger               { return d }
func (d noopDebugger) WithDynamicContext(string, func() string) Debugger { return d }

// NewPrintDebugger returns a Debugger that writes colon-separated
// trace lines to stdout, colored per goroutine so interleaved output
// from concurrent sockets stays readable.
func NewPrintDebugger() Debugger {
	return &printDebugger{stdout: coloredgoroutine.Colors(os.Stdout)}
}

type printDebugger struct {
	stdout         io.Writer
	context        string
	dynamicContext func() string
}

var printMu sync.Mutex

func (d *printDebugger) Log(main string, v ...any) {
	printMu.Lock()
	defer printMu.Unlock()

	segments := make([]string, 0, 2+len(v))
	if d.context != "" {
		segments = append(segments, d.context)
	}
	if d.dynamicContext != nil {
		if dc := d.dynamicContext(); dc != "" {
			segments = append(segments, dc)
		}
	}
	if main != "" {
		segments = append(segments, main)
	}
	for _, field := range v {
		segments = append(segments, fmt.Sprint(field))
	}

	fmt.Fprintln(d.stdout, strings.Join(segments, ": "))
	os.Stdout.Sync()
}

func (d printDebugger) WithContext(context string) Debugger {
	d.context = context
	return &d
}

func (d printDebugger) WithDynamicContext(context string, dynamicContext func() string) Debugger {
	d.context = context
	d.dynamicContext = dynamicContext
	return &d
}
