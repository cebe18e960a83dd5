// Package codec reads and writes the line-oriented numeric artifacts shared by
// every stage: descriptor files, aggregated vectors, sampled training sets and
// projection spaces.
//
// One line holds one vector; components are separated by a single delimiter
// (',' by default). Numbers are written in the shortest representation that
// parses back to the identical float64, so a write followed by a read is bit
// exact.
//
// Artifacts may additionally be framed with LZ4 or Zstandard compression; the
// framing is selected by file extension (see CompressionFromName).
package codec

import (
	"io"
)

// DefaultDelimiter separates vector components.
const DefaultDelimiter = ','

// Default is the comma separated text codec.
var Default = Text{Delimiter: DefaultDelimiter}

// ReadMatrix reads every non-blank line of r with the default codec.
func ReadMatrix(r io.Reader) ([][]float64, error) { return Default.ReadMatrix(r) }

// ReadVector reads the first non-blank line of r with the default codec.
func ReadVector(r io.Reader) ([]float64, error) { return Default.ReadVector(r) }

// WriteMatrix writes one line per row with the default codec.
func WriteMatrix(w io.Writer, rows [][]float64) error { return Default.WriteMatrix(w, rows) }

// WriteVector writes v as a single line with the default codec.
func WriteVector(w io.Writer, v []float64) error { return Default.WriteVector(w, v) }
