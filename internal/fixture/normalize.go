package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Row widths for the two kinds of index arrays.
const (
	FaceWidth  = 3
	TetraWidth = 4
)

// IndexBase declares how an external index array is addressed.
type IndexBase int

const (
	// IndexBaseAuto infers the base from the data: a global minimum of at
	// least 1 is taken to mean 1-based. A 0-based array that never uses
	// index 0 is misread as 1-based; Normalized.Inferred flags every shift
	// made this way so callers can warn.
	IndexBaseAuto IndexBase = iota
	IndexBaseZero
	IndexBaseOne
)

func (b IndexBase) String() string {
	switch b {
	case IndexBaseZero:
		return "0"
	case IndexBaseOne:
		return "1"
	default:
		return "auto"
	}
}

// ParseIndexBase parses "auto", "0" or "1". The empty string means auto.
func ParseIndexBase(s string) (IndexBase, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "auto":
		return IndexBaseAuto, nil
	case "0":
		return IndexBaseZero, nil
	case "1":
		return IndexBaseOne, nil
	}
	return IndexBaseAuto, fmt.Errorf("%w: index base must be auto, 0 or 1, got %q", ErrMalformedInput, s)
}

// Normalized is the result of converting an index array to 0-based form.
type Normalized struct {
	Rows [][]int
	// Shifted is true when every index was decremented.
	Shifted bool
	// Inferred is true when the shift came from the min >= 1 heuristic
	// rather than a declared base.
	Inferred bool
}

// NormalizeIndices converts rows of width entries to 0-based addressing.
// Every row must hold exactly width entries. With IndexBaseAuto the whole
// array is shifted down by one when its global minimum is at least 1 and
// returned unchanged otherwise. Empty input yields empty output.
func NormalizeIndices(rows [][]int, width int, label string, base IndexBase) (Normalized, error) {
	for i, row := range rows {
		if len(row) != width {
			return Normalized{}, &MalformedIndexRowError{Label: label, Row: i, Width: width}
		}
	}
	if len(rows) == 0 {
		return Normalized{Rows: [][]int{}}, nil
	}

	switch base {
	case IndexBaseZero:
		return Normalized{Rows: rows}, nil
	case IndexBaseOne:
		for i, row := range rows {
			for _, v := range row {
				if v < 1 {
					return Normalized{}, malformed("%s[%d] has index %d but the array is declared 1-based", label, i, v)
				}
			}
		}
		return Normalized{Rows: shiftDown(rows), Shifted: true}, nil
	}

	minIndex := rows[0][0]
	for _, row := range rows {
		for _, v := range row {
			if v < minIndex {
				minIndex = v
			}
		}
	}
	if minIndex >= 1 {
		return Normalized{Rows: shiftDown(rows), Shifted: true, Inferred: true}, nil
	}
	return Normalized{Rows: rows}, nil
}

func shiftDown(rows [][]int) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		shifted := make([]int, len(row))
		for j, v := range row {
			shifted[j] = v - 1
		}
		out[i] = shifted
	}
	return out
}

// ParseIndexRows reads a raw JSON array of index rows. Each row must be an
// array of exactly width integers; anything else is a MalformedIndexRowError.
func ParseIndexRows(raw gjson.Result, width int, label string) ([][]int, error) {
	if !raw.IsArray() {
		return nil, malformed("%s must be an array", label)
	}
	items := raw.Array()
	rows := make([][]int, 0, len(items))
	for i, item := range items {
		if !item.IsArray() {
			return nil, &MalformedIndexRowError{Label: label, Row: i, Width: width}
		}
		values := item.Array()
		if len(values) != width {
			return nil, &MalformedIndexRowError{Label: label, Row: i, Width: width}
		}
		row := make([]int, width)
		for j, v := range values {
			n, ok := Integer(v)
			if !ok {
				return nil, &MalformedIndexRowError{Label: label, Row: i, Width: width}
			}
			row[j] = n
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Integer returns the value of a JSON integer literal. Numbers written with
// a fraction or exponent are not integers.
func Integer(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	n, err := strconv.Atoi(r.Raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsNumber reports whether r is a JSON number.
func IsNumber(r gjson.Result) bool {
	return r.Type == gjson.Number
}

// ToFaces converts normalized rows of width FaceWidth.
func ToFaces(rows [][]int) []Face {
	faces := make([]Face, len(rows))
	for i, row := range rows {
		copy(faces[i][:], row)
	}
	return faces
}

// ToTetras converts normalized rows of width TetraWidth.
func ToTetras(rows [][]int) []Tetra {
	tetras := make([]Tetra, len(rows))
	for i, row := range rows {
		copy(tetras[i][:], row)
	}
	return tetras
}
