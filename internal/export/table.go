package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Columns returns the sorted union of field names across records.
func Columns(records []resource.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for name := range r.Fields() {
			seen[name] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	slices.Sort(cols)
	return cols
}

// WriteTable writes the records of type t as CSV: one header row of sorted
// column names, then one row per record in collection order. Fields a record
// does not have render as empty cells. A type without records writes nothing.
func WriteTable(w io.Writer, doc resource.Document, t resource.Type) error {
	records, err := tableRecords(doc, t)
	if err != nil || len(records) == 0 {
		return err
	}
	return writeRecords(w, records)
}

// tableRecords returns the records of type t, warning when there are none.
func tableRecords(doc resource.Document, t resource.Type) ([]resource.Record, error) {
	records, ok := doc.Records(t)
	if !ok {
		return nil, &UnknownResourceTypeError{Type: t}
	}
	if len(records) == 0 {
		log.Warn().Str("type", t.String()).Msg("no records to export")
	}
	return records, nil
}

// ExportTable writes the records of type t to path. It reports false without
// creating a file when the type has no records.
func ExportTable(path string, doc resource.Document, t resource.Type) (bool, error) {
	records, err := tableRecords(doc, t)
	if err != nil || len(records) == 0 {
		return false, err
	}

	f, err := create(path)
	if err != nil {
		return false, err
	}

	if err := writeRecords(f, records); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}

	log.Info().Str("path", path).Str("type", t.String()).Int("records", len(records)).Msg("table exported")
	return true, nil
}

func writeRecords(w io.Writer, records []resource.Record) error {
	cols := Columns(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(cols))
	for _, r := range records {
		fields := r.Fields()
		for i, col := range cols {
			v, ok := fields[col]
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = cell(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// cell renders one field value. Composite values become compact JSON.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case resource.TagSet:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return compactJSON(v)
	}
}

func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
