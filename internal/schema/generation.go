package schema

import (
	"fmt"
	"strings"

	"meshfixture/internal/fixture"

	"github.com/tidwall/gjson"
)

// Generation names a version of the fixture options schema.
type Generation string

const (
	// GenerationLegacy carries a single checkSelfIntersections flag.
	GenerationLegacy Generation = "legacy"
	// GenerationCurrent carries the autoResolveIntersections /
	// failOnSelfIntersections pair.
	GenerationCurrent Generation = "current"
	// GenerationAuto picks legacy or current per fixture with Detect.
	GenerationAuto Generation = "auto"
)

// ParseGeneration parses a generation name. The empty string means auto.
func ParseGeneration(s string) (Generation, error) {
	switch g := Generation(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GenerationAuto, nil
	case GenerationLegacy, GenerationCurrent, GenerationAuto:
		return g, nil
	}
	return "", fmt.Errorf("unknown schema generation %q (valid: legacy, current, auto)", s)
}

// optionsSchema is the options key set one generation requires.
type optionsSchema struct {
	generation Generation
	booleans   []string
	tolerances []string
}

var optionsSchemas = map[Generation]optionsSchema{
	GenerationLegacy: {
		generation: GenerationLegacy,
		booleans:   []string{"checkInput", "checkSelfIntersections"},
		tolerances: []string{"planeDistanceTolerance", "epsilon"},
	},
	GenerationCurrent: {
		generation: GenerationCurrent,
		booleans:   []string{"checkInput", "autoResolveIntersections", "failOnSelfIntersections"},
		tolerances: []string{"planeDistanceTolerance", "epsilon"},
	},
}

func (s optionsSchema) required() []string {
	keys := make([]string, 0, len(s.booleans)+len(s.tolerances))
	keys = append(keys, s.booleans...)
	return append(keys, s.tolerances...)
}

// Detect reports the generation an options object was written for: legacy
// when it has checkSelfIntersections and neither of the newer keys,
// current otherwise.
func Detect(options gjson.Result) Generation {
	legacy := options.Get("checkSelfIntersections").Exists()
	current := options.Get("autoResolveIntersections").Exists() || options.Get("failOnSelfIntersections").Exists()
	if legacy && !current {
		return GenerationLegacy
	}
	return GenerationCurrent
}

func (g Generation) schemaFor(options gjson.Result) optionsSchema {
	if g == GenerationAuto {
		g = Detect(options)
	}
	return optionsSchemas[g]
}

// Migrate rewrites options into the current generation's key set. The
// legacy flag is folded into both current flags using the same fallback as
// Options.Resolve, then dropped.
func Migrate(o fixture.Options) (fixture.Options, bool) {
	if o.CheckSelfIntersections == nil && o.AutoResolveIntersections != nil && o.FailOnSelfIntersections != nil {
		return o, false
	}
	resolved := o.Resolve()
	o.AutoResolveIntersections = fixture.Bool(resolved.AutoResolveIntersections)
	o.FailOnSelfIntersections = fixture.Bool(resolved.FailOnSelfIntersections)
	o.CheckSelfIntersections = nil
	return o, true
}
