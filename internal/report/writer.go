package report

import "io"

// Writer renders a Summary to a destination. Implementations exist
// for plain text, Markdown, and JSON.
type Writer interface {
	// Write outputs the summary. It returns the number of bytes
	// written and any error encountered.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers, stopping on the first error.
// Useful for outputting to both the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers. Returns the
// total bytes written across all writers.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
