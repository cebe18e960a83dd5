package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/pandora"
)

// Text is a delimiter separated numeric codec. The zero value uses
// DefaultDelimiter.
//
// Blank lines are skipped on read. An empty vector is written as an empty
// line and therefore does not survive a round trip.
type Text struct {
	Delimiter rune
}

func (t Text) delimiter() rune {
	if t.Delimiter == 0 {
		return DefaultDelimiter
	}
	return t.Delimiter
}

func (t Text) newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = t.delimiter()
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// ReadMatrix reads every non-blank line of r. Rows may differ in length.
func (t Text) ReadMatrix(r io.Reader) ([][]float64, error) {
	cr := t.newReader(r)

	rows := [][]float64{}
	for {
		row, err := t.readRow("codec.ReadMatrix", cr)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// ReadVector reads the first non-blank line of r and ignores the rest.
func (t Text) ReadVector(r io.Reader) ([]float64, error) {
	row, err := t.readRow("codec.ReadVector", t.newReader(r))
	if errors.Is(err, io.EOF) {
		return nil, pandora.NewInputError("codec.ReadVector", "no vector in input")
	}
	return row, err
}

func (t Text) readRow(op string, cr *csv.Reader) ([]float64, error) {
	record, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, pandora.NewInputError(op, "%v", err)
	}

	row := make([]float64, len(record))
	for i, field := range record {
		x, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			line, col := cr.FieldPos(i)
			return nil, pandora.NewInputError(op, "line %d, column %d: invalid number %q", line, col, field)
		}
		row[i] = x
	}

	return row, nil
}

// WriteMatrix writes one line per row.
func (t Text) WriteMatrix(w io.Writer, rows [][]float64) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)

	for _, row := range rows {
		buf = t.appendRow(buf[:0], row)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteVector writes v as a single line.
func (t Text) WriteVector(w io.Writer, v []float64) error {
	_, err := w.Write(t.appendRow(make([]byte, 0, len(v)*20+1), v))
	return err
}

func (t Text) appendRow(dst []byte, row []float64) []byte {
	delim := string(t.delimiter())
	for i, x := range row {
		if i > 0 {
			dst = append(dst, delim...)
		}
		dst = strconv.AppendFloat(dst, x, 'g', -1, 64)
	}
	return append(dst, '\n')
}
