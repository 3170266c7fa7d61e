package license

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

var fixedColumns = []string{"serial", "status", "activation_date", "expiration_date"}

const (
	tokenTrue  = "true"
	tokenFalse = "false"
)

// EncodeCSV renders records as a snapshot. Feature columns are the union of
// known and every feature present in a record, sorted. Rows are ordered by
// serial so identical state always yields identical bytes.
func EncodeCSV(records []Record, known []string) ([]byte, error) {
	columns := NewFeatureSet(known...)
	for _, r := range records {
		for f := range r.Features {
			columns[f] = struct{}{}
		}
	}
	features := columns.Sorted()

	rows := slices.Clone(records)
	slices.SortFunc(rows, func(a, b Record) int { return strings.Compare(a.Serial, b.Serial) })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append(slices.Clone(fixedColumns), features...)); err != nil {
		return nil, err
	}

	for _, r := range rows {
		row := make([]string, 0, len(fixedColumns)+len(features))
		row = append(row, r.Serial, string(r.Status), formatDate(r.ActivationDate), formatDate(r.Expires))
		for _, f := range features {
			if r.Features.Has(f) {
				row = append(row, tokenTrue)
			} else {
				row = append(row, tokenFalse)
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses a snapshot produced by EncodeCSV. Empty input is an empty
// snapshot. When a serial appears twice the later row wins.
func DecodeCSV(data []byte) (map[string]Record, error) {
	records := make(map[string]Record)
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Join(ErrInvalidSnapshot, err)
	}
	if len(header) < len(fixedColumns) {
		return nil, fmt.Errorf("%w: header has %d columns", ErrInvalidSnapshot, len(header))
	}
	for i, want := range fixedColumns {
		if got := strings.ToLower(strings.TrimSpace(header[i])); got != want {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidSnapshot, i+1, got, want)
		}
	}
	features := make([]string, 0, len(header)-len(fixedColumns))
	for i, h := range header[len(fixedColumns):] {
		f := NormalizeFeature(h)
		if f == "" {
			return nil, fmt.Errorf("%w: column %d has no feature name", ErrInvalidSnapshot, len(fixedColumns)+i+1)
		}
		features = append(features, f)
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrInvalidSnapshot, err)
		}
		line, _ := r.FieldPos(0)

		rec, err := decodeRow(row, features)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidSnapshot, line, err)
		}
		if rec.Serial == "" {
			continue
		}
		records[rec.Serial] = rec
	}

	return records, nil
}

func decodeRow(row, features []string) (Record, error) {
	rec := Record{
		Serial:   NormalizeSerial(row[0]),
		Status:   Status(strings.ToLower(strings.TrimSpace(row[1]))),
		Features: make(FeatureSet),
	}
	if rec.Status == "" {
		rec.Status = StatusNotActive
	}
	if !rec.Status.Valid() {
		return Record{}, fmt.Errorf("unknown status %q", row[1])
	}

	var err error
	if rec.ActivationDate, err = parseDate(row[2]); err != nil {
		return Record{}, fmt.Errorf("activation_date: %w", err)
	}
	if rec.Expires, err = parseDate(row[3]); err != nil {
		return Record{}, fmt.Errorf("expiration_date: %w", err)
	}

	for i, f := range features {
		switch strings.ToLower(strings.TrimSpace(row[len(fixedColumns)+i])) {
		case tokenTrue:
			rec.Features[f] = struct{}{}
		case tokenFalse, "":
		default:
			return Record{}, fmt.Errorf("feature %q: invalid token %q", f, row[len(fixedColumns)+i])
		}
	}

	return rec, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
