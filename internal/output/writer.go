// internal/output/writer.go - Output writing implementation
package output

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Writer formats reports and writes them to a destination
type Writer struct {
	formatter   Formatter
	destination Destination
}

// NewWriter creates a writer. An empty destination or "-" writes to stdout;
// anything else is a file path on fs.
func NewWriter(fs afero.Fs, config *WriterConfig, destination string) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	formatter, err := NewFormatter(config.Format, config.Pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	var dest Destination
	if destination == "" || destination == "-" {
		dest = newStreamDestination(os.Stdout, "stdout")
	} else {
		dest, err = newFileDestination(fs, destination, config.Compression)
		if err != nil {
			return nil, fmt.Errorf("failed to create file destination: %w", err)
		}
	}

	return &Writer{formatter: formatter, destination: dest}, nil
}

// NewStreamWriter creates a writer onto an already open stream, which is not
// closed by the writer
func NewStreamWriter(w io.Writer, format Format, pretty bool) (*Writer, error) {
	formatter, err := NewFormatter(format, pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}
	return &Writer{formatter: formatter, destination: newStreamDestination(w, "stream")}, nil
}

// Write formats the value and writes it followed by a newline
func (w *Writer) Write(v any) error {
	data, err := w.formatter.Format(v)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}
	if _, err := w.destination.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to %s failed: %w", w.destination.Name(), err)
	}
	return nil
}

// Name returns the destination name
func (w *Writer) Name() string {
	return w.destination.Name()
}

// Size returns the number of report bytes written, before compression
func (w *Writer) Size() int64 {
	return w.destination.Size()
}

// Close closes the writer and underlying destination
func (w *Writer) Close() error {
	return w.destination.Close()
}

// streamDestination writes to a stream it does not own
type streamDestination struct {
	w    io.Writer
	name string
	size int64
}

func newStreamDestination(w io.Writer, name string) *streamDestination {
	return &streamDestination{w: w, name: name}
}

func (d *streamDestination) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	d.size += int64(n)
	return n, err
}

func (d *streamDestination) Close() error { return nil }
func (d *streamDestination) Name() string { return d.name }
func (d *streamDestination) Size() int64  { return d.size }

// fileDestination implements the Destination interface for file output
type fileDestination struct {
	file   afero.File
	writer io.WriteCloser
	name   string
	size   int64
}

// newFileDestination creates a new file destination with optional compression.
// Compressed files get a .gz suffix.
func newFileDestination(fs afero.Fs, path string, compression bool) (*fileDestination, error) {
	if compression && !strings.HasSuffix(path, ".gz") {
		path += ".gz"
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	var writer io.WriteCloser = file
	if compression {
		writer = gzip.NewWriter(file)
	}

	return &fileDestination{
		file:   file,
		writer: writer,
		name:   path,
	}, nil
}

// Write implements io.Writer
func (d *fileDestination) Write(p []byte) (n int, err error) {
	n, err = d.writer.Write(p)
	d.size += int64(n)
	return n, err
}

// Close flushes the compressor, if any, and always closes the file
func (d *fileDestination) Close() error {
	var err error
	if d.writer != io.WriteCloser(d.file) {
		err = d.writer.Close()
	}
	return multierr.Append(err, d.file.Close())
}

// Name returns the destination file path
func (d *fileDestination) Name() string {
	return d.name
}

// Size returns the number of bytes written before compression
func (d *fileDestination) Size() int64 {
	return d.size
}
