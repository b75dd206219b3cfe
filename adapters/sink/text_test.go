package sink

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLines(t *testing.T) {
	assert.Equal(t, []string{"99.57", "101.00", "-0.50"}, FormatLines([]float64{99.567, 101, -0.5}))
	assert.Empty(t, FormatLines(nil))
}

func TestTextSink_WritesInOrder(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf, 0, 0)

	require.NoError(t, sink.Send(context.Background(), []float64{100.123, 98.7, 102}))
	assert.Equal(t, "100.12\n98.70\n102.00\n", buf.String())
}

func TestTextSink_EmptyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextSink(&buf, time.Hour, time.Hour).Send(context.Background(), nil))
	assert.Zero(t, buf.Len())
}

func TestTextSink_CancelledDuringDelay(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf, 0, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sink.Send(ctx, []float64{1, 2, 3})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "1.00\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestTextSink_WriterError(t *testing.T) {
	err := NewTextSink(failingWriter{}, 0, 0).Send(context.Background(), []float64{1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "value 1")
}
