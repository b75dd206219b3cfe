package ports

import (
	"context"
	"io"
)

// ValueSink receives generated values in sequence order (keystroke/text output)
type ValueSink interface {
	Send(ctx context.Context, values []float64) error
}

// Exporter serializes a sequence as (day, value) rows
type Exporter interface {
	Export(w io.Writer, values []float64) error
	ContentType() string
	Extension() string
}
