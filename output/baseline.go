package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"
)

// LoadRecords reads records written by a previous run. JSON arrays and
// newline-delimited JSON are decoded; anything else is read as text with
// one value per line.
func LoadRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	for {
		b, err := reader.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}

		if unicode.IsSpace(rune(b[0])) {
			if _, err := reader.ReadByte(); err != nil {
				return nil, err
			}
			continue
		}

		switch b[0] {
		case '[':
			var records []Record
			decoder := json.NewDecoder(reader)
			if err := decoder.Decode(&records); err != nil {
				return nil, err
			}
			return records, nil
		case '{':
			return decodeNDJSON(reader)
		default:
			return readLines(reader)
		}
	}
}

func decodeNDJSON(r io.Reader) ([]Record, error) {
	decoder := json.NewDecoder(r)
	records := make([]Record, 0)
	for {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func readLines(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	records := make([]Record, 0)
	for scanner.Scan() {
		value := strings.TrimSpace(scanner.Text())
		if value == "" {
			continue
		}
		records = append(records, Record{Value: value, Count: 1})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
