package sink

import (
	"context"
	"io"
	"strconv"
	"time"

	"qcgen/internal/errors"
)

// FormatValue renders one value the way it is typed into the target field
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatLines renders values one per line in sequence order
func FormatLines(values []float64) []string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = FormatValue(v)
	}
	return lines
}

// TextSink types values into a writer, pausing before the first value and
// between values so a focused input field can keep up
type TextSink struct {
	w          io.Writer
	startDelay time.Duration
	keyDelay   time.Duration
}

// NewTextSink creates a sink over w
func NewTextSink(w io.Writer, startDelay, keyDelay time.Duration) *TextSink {
	return &TextSink{w: w, startDelay: startDelay, keyDelay: keyDelay}
}

// Send writes each value followed by a newline. It stops early when ctx is done.
func (s *TextSink) Send(ctx context.Context, values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if err := sleep(ctx, s.startDelay); err != nil {
		return err
	}
	for i, v := range values {
		if i > 0 {
			if err := sleep(ctx, s.keyDelay); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(s.w, FormatValue(v)+"\n"); err != nil {
			return errors.Wrapf(err, "failed to send value %d", i+1)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
