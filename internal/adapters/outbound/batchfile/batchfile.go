// Package batchfile reads campaign records for batch migration from JSON,
// JSON Lines and CSV files.
package batchfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/adshift/adshift/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is a batch file format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported batch file %q (want .json, .jsonl or .csv)", filepath.Base(path))
	}
}

// Read loads every record in the file at path.
func Read(path string) ([]domain.RawRecord, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// Decode parses data in the given format. Text is decoded from UTF-8,
// UTF-16 with a byte order mark, or Latin-1 when it is not valid UTF-8.
func Decode(data []byte, format Format) ([]domain.RawRecord, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return decodeJSON(text)
	case FormatJSONL:
		return decodeJSONLines(text)
	case FormatCSV:
		return decodeCSV(text)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func decodeText(data []byte) ([]byte, error) {
	var fallback transform.Transformer = encoding.Nop.NewDecoder()
	if !utf8.Valid(data) {
		fallback = charmap.ISO8859_1.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, fmt.Errorf("decoding text: %w", err)
	}
	return out, nil
}

func decodeJSON(data []byte) ([]domain.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("file is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '{' {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
		rec, err := domain.NewRawRecord(m)
		if err != nil {
			return nil, err
		}
		return []domain.RawRecord{rec}, nil
	}

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("expected an object or an array of objects: %w", err)
	}
	return toRecords(items)
}

func decodeJSONLines(data []byte) ([]domain.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []map[string]any
	for {
		var m map[string]any
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(items)+1, err)
		}
		items = append(items, m)
	}
	return toRecords(items)
}

func toRecords(items []map[string]any) ([]domain.RawRecord, error) {
	out := make([]domain.RawRecord, 0, len(items))
	for i, m := range items {
		if m == nil {
			return nil, fmt.Errorf("record %d: not an object", i+1)
		}
		rec, err := domain.NewRawRecord(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeCSV reads a header row followed by one record per row. Dotted
// headers such as "targeting.geo" build nested objects; empty cells are
// left out of the record.
func decodeCSV(data []byte) ([]domain.RawRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
	}

	var out []domain.RawRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		m := make(map[string]any, len(row))
		for i, cell := range row {
			if cell == "" {
				continue
			}
			if err := setPath(m, header[i], cellValue(cell)); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		rec, err := domain.NewRawRecord(m)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// cellValue types a CSV cell: booleans and plain numbers are converted,
// everything else (including zero-padded ids and integers too large for a
// float64) stays a string.
func cellValue(cell string) any {
	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}
	if len(cell) > 1 && cell[0] == '0' && cell[1] != '.' {
		return cell
	}
	if isIntLiteral(cell) {
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil || n > maxExactInt || n < -maxExactInt {
			return cell
		}
		return float64(n)
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !strings.ContainsAny(cell, "xXpP_") {
		if strings.EqualFold(cell, "nan") || strings.Contains(strings.ToLower(cell), "inf") {
			return cell
		}
		return f
	}
	return cell
}

func isIntLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func setPath(m map[string]any, path string, v any) error {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p]
		if !ok {
			child := map[string]any{}
			m[p] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("column %q conflicts with column %q", path, p)
		}
		m = child
	}
	last := parts[len(parts)-1]
	if _, exists := m[last]; exists {
		return fmt.Errorf("column %q conflicts with another column", path)
	}
	m[last] = v
	return nil
}
