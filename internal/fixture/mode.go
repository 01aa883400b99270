package fixture

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Mode is the assertion strategy derived from a fixture's expected block.
// It is never stored; Classify computes it.
type Mode string

const (
	ModeFailFast      Mode = "fail-fast"
	ModeDeterministic Mode = "deterministic"
	ModeCountVolume   Mode = "count+volume"
	ModeVolumeOnly    Mode = "volume-only"
)

// Modes lists every mode in classification precedence order.
var Modes = []Mode{ModeFailFast, ModeDeterministic, ModeCountVolume, ModeVolumeOnly}

func (m Mode) String() string { return string(m) }

// Valid reports whether m is one of the four modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// Alias is the short name the command line uses for m.
func (m Mode) Alias() string {
	switch m {
	case ModeFailFast:
		return "failfast"
	case ModeCountVolume:
		return "count"
	case ModeVolumeOnly:
		return "volume"
	default:
		return string(m)
	}
}

// ParseMode accepts both the canonical mode names and the command line
// aliases (volume, deterministic, count, failfast).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "failfast", "fail-fast":
		return ModeFailFast, nil
	case "deterministic":
		return ModeDeterministic, nil
	case "count", "count+volume":
		return ModeCountVolume, nil
	case "volume", "volume-only":
		return ModeVolumeOnly, nil
	}
	return "", fmt.Errorf("unsupported mode %q (valid: volume, deterministic, count, failfast)", s)
}

// Signals are the facts about an expected block that classification looks at.
type Signals struct {
	ExceptionContains  string
	HasExactTetrahedra bool
	HasTetraCount      bool
}

// ClassifySignals maps signals to a mode. First match wins:
// exception message, exact tetrahedra, tetra count, volume only.
func ClassifySignals(s Signals) Mode {
	switch {
	case s.ExceptionContains != "":
		return ModeFailFast
	case s.HasExactTetrahedra:
		return ModeDeterministic
	case s.HasTetraCount:
		return ModeCountVolume
	default:
		return ModeVolumeOnly
	}
}

// Signals extracts classification signals from a typed expected block.
func (e Expected) Signals() Signals {
	return Signals{
		ExceptionContains:  e.ExpectedExceptionContains,
		HasExactTetrahedra: e.ExactTetrahedra != nil,
		HasTetraCount:      e.TetraCount != nil,
	}
}

// Classify returns the assertion mode of a typed expected block.
func Classify(e Expected) Mode {
	return ClassifySignals(e.Signals())
}

// SignalsFromJSON extracts classification signals from a raw expected
// object without requiring it to be schema-valid. Explicit nulls count as
// absent.
func SignalsFromJSON(expected gjson.Result) Signals {
	return Signals{
		ExceptionContains:  truthyText(expected.Get("expectedExceptionContains")),
		HasExactTetrahedra: present(expected.Get("exactTetrahedra")),
		HasTetraCount:      present(expected.Get("tetraCount")),
	}
}

// ClassifyJSON returns the assertion mode of a raw expected object.
func ClassifyJSON(expected gjson.Result) Mode {
	return ClassifySignals(SignalsFromJSON(expected))
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// truthyText returns the text of a value that counts as a set exception
// message, or "" when the value is absent, null, false, zero or empty.
func truthyText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.True:
		return r.Raw
	case gjson.Number:
		if r.Float() != 0 {
			return r.Raw
		}
	case gjson.JSON:
		if r.IsArray() && len(r.Array()) > 0 {
			return r.Raw
		}
		if r.IsObject() && len(r.Map()) > 0 {
			return r.Raw
		}
	}
	return ""
}
