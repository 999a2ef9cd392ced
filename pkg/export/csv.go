package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet apps detect UTF-8 in names with diacritics.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions tunes CSV output.
type CSVOptions struct {
	BOM       bool
	Separator rune
}

// CSV renders the table with a header line.
func CSV(t Table, opts CSVOptions) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if opts.BOM {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(buf)
	if opts.Separator != 0 {
		w.Comma = opts.Separator
	}
	if err := w.Write(t.Headers()); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
