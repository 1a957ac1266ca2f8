package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes to operator output so streamed build output and stage lines
// never interleave within a write. Only destinations with a Flush method, such as bufio.Writer,
// are flushed; os.Stdout is written through unchanged.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
	flusher     flusher
}

// NewFlushingWriter wraps writer. Nil stays nil and an existing FlushingWriter is returned unchanged.
func NewFlushingWriter(writer io.Writer) io.Writer {
	switch typedWriter := writer.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typedWriter
	}

	flushingWriter := &FlushingWriter{destination: writer}
	if bufferedWriter, buffered := writer.(flusher); buffered {
		flushingWriter.flusher = bufferedWriter
	}
	return flushingWriter
}

// Write forwards data and flushes the destination when it buffers.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	written, writeError := flushingWriter.destination.Write(data)
	if writeError != nil || flushingWriter.flusher == nil {
		return written, writeError
	}
	return written, flushingWriter.flusher.Flush()
}
