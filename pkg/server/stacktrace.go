package server

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
)

// smallStacktrace renders a compact stack trace for diagnostic logging
// when a handler returns an unexpected error, trimming file paths so
// each frame stays on one line.
func smallStacktrace() string {
	const unicodeEllipsis = "…"

	var buf bytes.Buffer
	pc := make([]uintptr, 100)
	pc = pc[:runtime.Callers(2, pc)]
	frames := runtime.CallersFrames(pc)
	for {
		f, more := frames.Next()

		if idx := strings.LastIndexByte(f.Function, '/'); idx >= 0 {
			f.Function = f.Function[idx+1:]
		}

		fullPath := fmt.Sprintf("%s:%-4d", f.File, f.Line)
		if len(fullPath) > 30 {
			fullPath = unicodeEllipsis + fullPath[len(fullPath)-29:]
		}

		fmt.Fprintf(&buf, "%30s %s\n", fullPath, f.Function)

		if !more {
			return buf.String()
		}
	}
}
