// Package csvtext splits delimiter-separated text into records and fields.
//
// The format is the usual spreadsheet dialect: a field may be wrapped in
// double quotes, inside which the delimiter and line breaks are literal and a
// doubled quote stands for one quote character. A quote that does not open a
// field is an ordinary character. The parser knows nothing about headers or
// column counts; rows come back exactly as wide as they are in the text.
package csvtext

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned when a quoted field is still open at the end
// of the text.
var ErrMalformedInput = errors.New("malformed input")

// Parse splits text into records on unquoted newlines and each record into
// fields on unquoted delimiter. A "\r\n" line ending counts as one newline. A
// newline at the very end of the text does not start another record.
func Parse(text string, delimiter rune) ([][]string, error) {
	var (
		records [][]string
		record  []string
		field   strings.Builder

		quoted    bool // inside a quoted span
		fieldOpen bool // something has been written to the current record
		line      = 1
		quoteLine int
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	endRecord := func() {
		endField()
		records = append(records, record)
		record = nil
		fieldOpen = false
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quoted {
			switch {
			case r == '"' && i+1 < len(runes) && runes[i+1] == '"':
				field.WriteRune('"')
				i++
			case r == '"':
				quoted = false
			default:
				if r == '\n' {
					line++
				}
				field.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '"' && field.Len() == 0:
			quoted = true
			quoteLine = line
			fieldOpen = true
		case r == delimiter:
			endField()
			fieldOpen = true
		case r == '\r' && i+1 < len(runes) && runes[i+1] == '\n':
			// folded into the following '\n'
		case r == '\n':
			endRecord()
			line++
		default:
			field.WriteRune(r)
			fieldOpen = true
		}
	}

	if quoted {
		return nil, fmt.Errorf("%w: unterminated quoted field starting on line %d", ErrMalformedInput, quoteLine)
	}
	if fieldOpen || field.Len() > 0 {
		endRecord()
	}
	return records, nil
}
