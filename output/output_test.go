package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RowanDark/internpool/config"
)

func TestJSONWriter(t *testing.T) {
	cfg := &config.Config{Format: config.FormatJSON, OutputPath: filepath.Join(t.TempDir(), "nested", "out.json")}
	writer, err := NewWriter(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, record := range []Record{{Value: "a", Count: 3}, {Value: "b", Sources: []string{"x.txt"}}} {
		if err := writer.WriteRecord(record); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	var decoded []Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding json: %v\n%s", err, data)
	}
	if len(decoded) != 2 || decoded[0].Count != 3 || decoded[1].Count != 1 {
		t.Fatalf("unexpected records %+v", decoded)
	}
	if decoded[1].Sources[0] != "x.txt" {
		t.Fatalf("expected sources to round trip")
	}
}

func TestJSONWriterPrettyAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&config.Config{Format: config.FormatJSON, JSONPretty: true}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.WriteRecord(Record{Value: "pretty"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\n    \"value\": \"pretty\"") {
		t.Fatalf("expected indented output, got %s", buf.String())
	}
	var decoded []Record
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 1 {
		t.Fatalf("pretty output must stay valid JSON: %v", err)
	}

	buf.Reset()
	writer, _ = NewWriter(&config.Config{Format: config.FormatJSON}, &buf)
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&config.Config{Format: config.FormatCSV}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.WriteRecord(Record{Value: "a,b", Count: 2, Sources: []string{"one", "two"}, FirstSeen: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	if rows[0][0] != "value" || rows[1][0] != "a,b" || rows[1][1] != "2" || rows[1][2] != "one;two" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestTXTWriter(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&config.Config{Format: config.FormatTXT}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range []string{"first", "second"} {
		if err := writer.WriteRecord(Record{Value: v}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if buf.String() != "first\nsecond\n" || writer.Written() != 2 {
		t.Fatalf("unexpected txt output %q", buf.String())
	}
}

func TestUnsupportedFormat(t *testing.T) {
	writer, err := NewWriter(&config.Config{Format: "xml"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.WriteRecord(Record{Value: "x"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.ndjson")
	data := "{\"value\":\"a\",\"count\":2}\n{\"value\":\"b\",\"count\":1}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 || records[0].Value != "a" || records[0].Count != 2 {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestLoadRecordsJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	if err := os.WriteFile(path, []byte("  [{\"value\":\"a\"}]"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := LoadRecords(path)
	if err != nil || len(records) != 1 || records[0].Value != "a" {
		t.Fatalf("unexpected result %+v %v", records, err)
	}
}

func TestLoadRecordsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.txt")
	if err := os.WriteFile(path, []byte("alpha\n\n  beta  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := LoadRecords(path)
	if err != nil || len(records) != 2 || records[1].Value != "beta" {
		t.Fatalf("unexpected result %+v %v", records, err)
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if records, err := LoadRecords(empty); err != nil || records != nil {
		t.Fatalf("expected no records for empty file")
	}
}
