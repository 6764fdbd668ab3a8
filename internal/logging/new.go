package logging

import (
	"fmt"
	"io"
	"strings"
)

const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// New builds the logger selected by backend, writing JSON lines to w.
// An empty backend means slog. level is debug, info, warn or error and is
// checked by the chosen backend's own parser.
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		return newSlogJSON(level, w)
	case BackendZerolog:
		return newZerologJSON(level, w)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
