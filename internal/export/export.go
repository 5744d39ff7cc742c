// Package export persists ordered record rows as delimited text files with
// a configurable dialect, and generates collision-resistant file names.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Dialect describes the on-disk shape of a delimited file. The zero value
// is not usable; use DefaultDialect or fill from configuration.
type Dialect struct {
	// Encoding is an IANA charset name, e.g. "UTF-8" or "windows-1251".
	Encoding string
	// Delimiter separates fields; a single character.
	Delimiter string
	// CRLF selects "\r\n" line termination instead of "\n".
	CRLF bool
}

// DefaultDialect matches the historical export format.
func DefaultDialect() Dialect {
	return Dialect{Encoding: "UTF-8", Delimiter: ","}
}

func (d Dialect) comma() (rune, error) {
	runes := []rune(d.Delimiter)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", d.Delimiter)
	}
	return runes[0], nil
}

func (d Dialect) charset() (encoding.Encoding, error) {
	name := strings.TrimSpace(d.Encoding)
	if name == "" {
		name = "UTF-8"
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", d.Encoding)
	}
	return enc, nil
}

// Writer is a record sink bound to one output file. It owns the file handle
// for the duration of the write session; Close flushes and releases it on
// every exit path.
type Writer struct {
	file *os.File
	enc  io.Writer
	csv  *csv.Writer
}

// NewWriter creates the file and prepares the encoding and CSV layers.
func NewWriter(path string, d Dialect) (*Writer, error) {
	comma, err := d.comma()
	if err != nil {
		return nil, err
	}
	charset, err := d.charset()
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	enc := transform.NewWriter(f, charset.NewEncoder())
	cw := csv.NewWriter(enc)
	cw.Comma = comma
	cw.UseCRLF = d.CRLF

	return &Writer{file: f, enc: enc, csv: cw}, nil
}

// WriteHeader writes the column header row.
func (w *Writer) WriteHeader(columns []string) error {
	return w.WriteRow(columns)
}

// WriteRow writes one record as a single line.
func (w *Writer) WriteRow(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Close flushes all layers and closes the file. Safe to call after errors;
// the file is always released.
func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if c, ok := w.enc.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return errors.Join(err, w.file.Close())
}

// OpenReader opens a delimited file for reading with the same dialect it
// was written in. The returned closer releases the file.
func OpenReader(path string, d Dialect) (*csv.Reader, io.Closer, error) {
	comma, err := d.comma()
	if err != nil {
		return nil, nil, err
	}
	charset, err := d.charset()
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r := csv.NewReader(transform.NewReader(f, charset.NewDecoder()))
	r.Comma = comma
	r.FieldsPerRecord = -1
	return r, f, nil
}
