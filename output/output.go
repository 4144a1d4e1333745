// Package output writes deduplicated values as text, CSV or JSON.
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RowanDark/internpool/config"
)

// Record is one distinct value and how often it was seen.
type Record struct {
	Value     string   `json:"value"`
	Display   string   `json:"display,omitempty"`
	Count     int      `json:"count"`
	Sources   []string `json:"sources,omitempty"`
	FirstSeen string   `json:"first_seen,omitempty"`
}

// Writer serialises records to stdout or a file in a configured format.
type Writer struct {
	format        config.Format
	pretty        bool
	destination   io.Writer
	closer        io.Closer
	csvWriter     *csv.Writer
	csvHeaderSent bool
	buffered      *bufio.Writer
	written       int
}

// NewWriter creates a writer configured according to cfg. Live output goes
// to stdout.
func NewWriter(cfg *config.Config, stdout io.Writer) (*Writer, error) {
	var (
		dest   io.Writer = stdout
		closer io.Closer
	)

	if !cfg.LiveOutput() {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}

		file, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("opening output file: %w", err)
		}
		dest = file
		closer = file
	}
	if dest == nil {
		dest = os.Stdout
	}

	writer := &Writer{format: cfg.Format, pretty: cfg.JSONPretty, closer: closer}
	writer.buffered = bufio.NewWriter(dest)
	writer.destination = writer.buffered
	if cfg.Format == config.FormatCSV {
		writer.csvWriter = csv.NewWriter(writer.buffered)
	}
	return writer, nil
}

// WriteRecord persists a single record using the configured format.
func (w *Writer) WriteRecord(record Record) error {
	if record.Count <= 0 {
		record.Count = 1
	}

	var err error
	switch w.format {
	case config.FormatJSON:
		err = w.writeJSONRecord(record)
	case config.FormatCSV:
		err = w.writeCSVRecord(record)
	case config.FormatTXT, "":
		err = w.writeTXTRecord(record)
	default:
		return fmt.Errorf("unsupported output format: %s", w.format)
	}
	if err != nil {
		return err
	}
	w.written++
	return nil
}

// Written returns the number of records written so far.
func (w *Writer) Written() int {
	return w.written
}

func (w *Writer) writeJSONRecord(record Record) error {
	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(record, "  ", "  ")
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return err
	}

	sep := ",\n  "
	if w.written == 0 {
		sep = "[\n  "
	}
	if _, err := io.WriteString(w.destination, sep); err != nil {
		return err
	}
	_, err = w.destination.Write(data)
	return err
}

func (w *Writer) writeCSVRecord(record Record) error {
	if w.csvWriter == nil {
		return fmt.Errorf("csv writer not initialised")
	}

	if !w.csvHeaderSent {
		header := []string{"value", "count", "sources", "first_seen"}
		if err := w.csvWriter.Write(header); err != nil {
			return err
		}
		w.csvHeaderSent = true
	}

	row := []string{
		record.Value,
		strconv.Itoa(record.Count),
		strings.Join(record.Sources, ";"),
		record.FirstSeen,
	}
	if err := w.csvWriter.Write(row); err != nil {
		return err
	}
	return w.csvWriter.Error()
}

func (w *Writer) writeTXTRecord(record Record) error {
	if w.destination == nil {
		return fmt.Errorf("txt writer not initialised")
	}
	_, err := io.WriteString(w.destination, record.Value+"\n")
	return err
}

// Timestamp formats t the way FirstSeen is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Close finishes the document, flushes buffered data and closes owned file
// handles.
func (w *Writer) Close() error {
	if w.format == config.FormatJSON {
		closing := "\n]\n"
		if w.written == 0 {
			closing = "[]\n"
		}
		if _, err := io.WriteString(w.destination, closing); err != nil {
			return err
		}
	}

	if w.csvWriter != nil {
		w.csvWriter.Flush()
		if err := w.csvWriter.Error(); err != nil {
			return err
		}
	}

	if w.buffered != nil {
		if err := w.buffered.Flush(); err != nil {
			return err
		}
	}

	if w.closer != nil {
		return w.closer.Close()
	}

	return nil
}
