// Package script loads batch benchmark inputs from txt, jsonl, or csv
// files into the ordered Script/ScriptItem shape the engine expands at
// run creation time (spec §3's "external collaborator" read-only input).
package script

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// Format selects how Load interprets the input stream.
type Format string

const (
	FormatText Format = "txt"  // one input per line
	FormatJSONL Format = "jsonl" // one JSON object per line, field "text", "prompt" or "sentence"
	FormatCSV  Format = "csv"  // first column is the input text; header row skipped if present
)

// Load reads r per format and returns the ordered list of input strings,
// skipping blank lines.
func Load(r io.Reader, format Format) ([]string, error) {
	switch format {
	case FormatText:
		return loadText(r)
	case FormatJSONL:
		return loadJSONL(r)
	case FormatCSV:
		return loadCSV(r)
	default:
		return nil, fmt.Errorf("script: unknown format %q", format)
	}
}

func loadText(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("script: read text: %w", err)
	}
	return inputs, nil
}

// jsonlTextKeys lists the field names a jsonl line may use for its input
// text, tried in order.
var jsonlTextKeys = []string{"text", "prompt", "sentence"}

func loadJSONL(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var text string
		for _, key := range jsonlTextKeys {
			if v := gjson.Get(line, key).String(); v != "" {
				text = v
				break
			}
		}
		if text == "" {
			return nil, fmt.Errorf("script: jsonl line missing text/prompt/sentence field: %s", line)
		}
		inputs = append(inputs, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("script: read jsonl: %w", err)
	}
	return inputs, nil
}

// loadCSV reads the first column of each row as the input text. A header
// row is detected and skipped when its first cell matches one of
// jsonlTextKeys (case-insensitive) — "text", "prompt", or "sentence".
func loadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var inputs []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("script: read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if first {
			first = false
			if isHeaderCell(record[0]) {
				continue
			}
		}
		text := strings.TrimSpace(record[0])
		if text == "" {
			continue
		}
		inputs = append(inputs, text)
	}
	return inputs, nil
}

// isHeaderCell reports whether cell names one of the recognized input-text
// keys, so a CSV's header row is skipped rather than ingested as data.
func isHeaderCell(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	for _, key := range jsonlTextKeys {
		if strings.EqualFold(trimmed, key) {
			return true
		}
	}
	return false
}
