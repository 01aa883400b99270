// Package schema enforces the structural and numeric invariants of stored
// fixtures. Checking one fixture stops at its first violation; a batch run
// checks every file and collects one error per failing file.
package schema

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"meshfixture/internal/fixture"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Minimum sizes of a usable closed surface.
const (
	MinVertices = 4
	MinFaces    = 4
)

var requiredTop = []string{"name", "input", "expected", "options"}
var requiredInput = []string{"vertices", "faces"}
var requiredExpected = []string{"tetraVolume", "volumeTolerance"}

// Violation is the first schema problem found in a fixture.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

// Unwrap lets errors.Is match fixture.ErrSchemaViolation.
func (v *Violation) Unwrap() error { return fixture.ErrSchemaViolation }

func violationf(format string, args ...any) error {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

// Validator checks fixtures against one options schema generation.
type Validator struct {
	generation Generation
	logger     *zap.Logger
}

// New returns a validator for generation. A nil logger discards output.
func New(generation Generation, logger *zap.Logger) *Validator {
	if generation == "" {
		generation = GenerationAuto
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{generation: generation, logger: logger}
}

// Generation returns the generation in force.
func (v *Validator) Generation() Generation { return v.generation }

// Validate checks a single fixture document and returns the first
// violation, or nil when the document is valid.
func (v *Validator) Validate(data []byte) error {
	if line := conflictMarkerLine(data); line > 0 {
		return violationf("contains merge conflict markers (line %d)", line)
	}
	if !gjson.ValidBytes(data) {
		return violationf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return violationf("fixture must be a JSON object")
	}

	if missing := missingKeys(doc, requiredTop); len(missing) > 0 {
		return violationf("missing top-level keys: %v", missing)
	}
	name := doc.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return violationf("name must be a non-empty string")
	}
	if err := fixture.ValidateName(name.Str); err != nil {
		return violationf("name must not contain slashes or whitespace")
	}

	if err := checkInput(doc.Get("input")); err != nil {
		return err
	}
	if err := checkExpected(doc.Get("expected")); err != nil {
		return err
	}
	return v.checkOptions(doc.Get("options"))
}

// ValidateFile checks one fixture file. Violations are prefixed with the
// file name.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := v.Validate(data); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func checkInput(input gjson.Result) error {
	if !input.IsObject() {
		return violationf("input must be an object")
	}
	if missing := missingKeys(input, requiredInput); len(missing) > 0 {
		return violationf("input missing keys: %v", missing)
	}

	vertices := input.Get("vertices")
	faces := input.Get("faces")
	if !vertices.IsArray() || len(vertices.Array()) < MinVertices {
		return violationf("input.vertices must be an array with at least %d entries", MinVertices)
	}
	if !faces.IsArray() || len(faces.Array()) < MinFaces {
		return violationf("input.faces must be an array with at least %d entries", MinFaces)
	}

	for i, vertex := range vertices.Array() {
		if !isTuple(vertex, 3, fixture.IsNumber) {
			return violationf("vertex[%d] must be [x,y,z] numeric", i)
		}
	}

	n := len(vertices.Array())
	for i, face := range faces.Array() {
		if !isTuple(face, 3, isInteger) {
			return violationf("face[%d] must be [a,b,c] integer indices", i)
		}
		for _, idx := range face.Array() {
			if k, _ := fixture.Integer(idx); k < 0 || k >= n {
				return violationf("face[%d] has out-of-range indices", i)
			}
		}
	}
	return nil
}

func checkExpected(expected gjson.Result) error {
	if !expected.IsObject() {
		return violationf("expected must be an object")
	}
	if missing := missingKeys(expected, requiredExpected); len(missing) > 0 {
		return violationf("expected missing keys: %v", missing)
	}

	if !fixture.IsNumber(expected.Get("tetraVolume")) {
		return violationf("expected.tetraVolume must be numeric")
	}
	if tol := expected.Get("volumeTolerance"); !fixture.IsNumber(tol) || tol.Float() < 0 {
		return violationf("expected.volumeTolerance must be non-negative numeric")
	}

	count := expected.Get("tetraCount")
	hasCount := count.Exists() && count.Type != gjson.Null
	if hasCount {
		if n, ok := fixture.Integer(count); !ok || n < 0 {
			return violationf("expected.tetraCount must be null/omitted or a non-negative integer")
		}
	}

	exact := expected.Get("exactTetrahedra")
	if exact.Exists() && exact.Type != gjson.Null {
		if !exact.IsArray() {
			return violationf("expected.exactTetrahedra must be an array when present")
		}
		rows := exact.Array()
		for i, tet := range rows {
			if !isTuple(tet, 4, isInteger) {
				return violationf("expected.exactTetrahedra[%d] must be [a,b,c,d] integer indices", i)
			}
		}
		if n, _ := fixture.Integer(count); hasCount && n != len(rows) {
			return violationf("expected.tetraCount must equal expected.exactTetrahedra length when both are present")
		}
	}

	exception := expected.Get("expectedExceptionContains")
	if exception.Exists() && exception.Type != gjson.Null {
		if exception.Type != gjson.String || strings.TrimSpace(exception.Str) == "" {
			return violationf("expected.expectedExceptionContains must be a non-empty string when present")
		}
	}
	return nil
}

func (v *Validator) checkOptions(options gjson.Result) error {
	if !options.IsObject() {
		return violationf("options must be an object")
	}
	s := v.generation.schemaFor(options)
	if missing := missingKeys(options, s.required()); len(missing) > 0 {
		return violationf("options missing keys: %v (schema generation %s)", missing, s.generation)
	}
	for _, key := range s.booleans {
		if !isBool(options.Get(key)) {
			return violationf("options.%s must be boolean", key)
		}
	}
	for _, key := range s.tolerances {
		if val := options.Get(key); !fixture.IsNumber(val) || val.Float() < 0 {
			return violationf("options.%s must be non-negative numeric", key)
		}
	}
	if verbose := options.Get("verbose"); verbose.Exists() && !isBool(verbose) {
		return violationf("options.verbose must be boolean")
	}
	return nil
}

func missingKeys(obj gjson.Result, keys []string) []string {
	var missing []string
	for _, key := range keys {
		if !obj.Get(key).Exists() {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func isTuple(r gjson.Result, width int, elem func(gjson.Result) bool) bool {
	if !r.IsArray() {
		return false
	}
	items := r.Array()
	if len(items) != width {
		return false
	}
	for _, it := range items {
		if !elem(it) {
			return false
		}
	}
	return true
}

func isInteger(r gjson.Result) bool {
	_, ok := fixture.Integer(r)
	return ok
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}

// conflictMarkerLine returns the 1-based line of the first merge conflict
// marker in data, or 0.
func conflictMarkerLine(data []byte) int {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "<<<<<<<") || strings.HasPrefix(text, "=======") || strings.HasPrefix(text, ">>>>>>>") {
			return line
		}
	}
	return 0
}
