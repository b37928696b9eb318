// Package render writes (bucket, key, value) records and name listings as
// aligned text tables or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Row is one record row
type Row struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// Rows copies the string columns of rec into rows
func Rows(rec arrow.Record) ([]Row, error) {
	if rec.NumCols() != 3 {
		return nil, fmt.Errorf("record has %d columns, want 3", rec.NumCols())
	}

	cols := make([]*array.String, 3)
	for i := range cols {
		col, ok := rec.Column(i).(*array.String)
		if !ok {
			return nil, fmt.Errorf("column %q is %s, want utf8", rec.ColumnName(i), rec.Column(i).DataType())
		}
		cols[i] = col
	}

	rows := make([]Row, rec.NumRows())
	for i := range rows {
		rows[i] = Row{
			Bucket: cols[0].Value(i),
			Key:    cols[1].Value(i),
			Value:  cols[2].Value(i),
		}
	}
	return rows, nil
}

// Record writes rec in the given format
func Record(w io.Writer, rec arrow.Record, format string) error {
	switch format {
	case FormatTable:
		return Table(w, rec)
	case FormatJSON:
		return JSON(w, rec)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Table writes rec as an aligned text table followed by a row count
func Table(w io.Writer, rec arrow.Record) error {
	rows, err := Rows(rec)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", cell(row.Bucket), cell(row.Key), cell(row.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

// JSON writes rec as one JSON object per line
func JSON(w io.Writer, rec arrow.Record) error {
	rows, err := Rows(rec)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// Names writes a listing, one name per line for tables or a JSON array
func Names(w io.Writer, names []string, format string) error {
	switch format {
	case FormatTable:
		for _, name := range names {
			if _, err := fmt.Fprintln(w, cell(name)); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		if names == nil {
			names = []string{}
		}
		return json.NewEncoder(w).Encode(names)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// cell quotes s when it holds characters that would break table alignment
func cell(s string) string {
	for _, r := range s {
		if r == '\t' || (r != ' ' && !unicode.IsPrint(r)) {
			return strconv.Quote(s)
		}
	}
	return s
}
