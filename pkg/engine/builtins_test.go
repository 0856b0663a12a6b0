package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/toroid/pkg/build"
	"github.com/chazu/toroid/pkg/design"
	"github.com/chazu/toroid/pkg/paint"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(tokamak :elongation 2)`,
			expect: `(tokamak "__kw_elongation" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(tokamak :elongation 2 :triangularity 0.55)`,
			expect: `(tokamak "__kw_elongation" 2 "__kw_triangularity" 0.55)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(tokamak-from-plasma :radial build)`,
			expect: `(tokamak_from_plasma "__kw_radial" build)`,
		},
		{
			name:   "part name in string preserved",
			input:  `(remove-part r "layer_1")`,
			expect: `(remove_part r "layer_1")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:curve-points`,
			expect: `"__kw_curve-points"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *design.Design {
	t.Helper()
	d, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if d == nil {
		t.Fatal("expected non-nil design")
	}
	return d
}

// evalErrors evaluates source that is expected to fail in user code.
// lookup returns the named reactor of d or fails the test.
func lookup(t *testing.T, d *design.Design, name string) *design.Reactor {
	t.Helper()
	r := d.Lookup(name)
	if r == nil {
		t.Fatalf("no reactor named %q", name)
	}
	return r
}

func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	d, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if d != nil {
		t.Fatal("expected nil design on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs
}

// ---------------------------------------------------------------------------
// Reactor builtins
// ---------------------------------------------------------------------------

const minimalSource = `
(tokamak-from-plasma "demo"
  :radial (list (gap 10) (solid 30) (plasma 300) (solid 20))
  :elongation 2
  :triangularity 0.55)
`

func TestTokamakFromPlasma(t *testing.T) {
	d := mustEval(t, minimalSource)
	if d.Len() != 1 {
		t.Fatalf("expected 1 reactor, got %d", d.Len())
	}
	r := d.Lookup("demo")
	if r == nil {
		t.Fatal("expected reactor named 'demo'")
	}
	req := r.Request
	if req.Family != build.FamilyTokamakFromPlasma {
		t.Errorf("family = %s", req.Family)
	}
	want := build.RadialBuild{build.Gap(10), build.Solid(30), build.Plasma(300), build.Solid(20)}
	if !reflect.DeepEqual(req.Radial, want) {
		t.Errorf("radial = %v, want %v", req.Radial, want)
	}
	if req.Shape.Elongation != 2 {
		t.Errorf("elongation = %g, want 2", req.Shape.Elongation)
	}
	if req.Shape.Triangularity != 0.55 {
		t.Errorf("triangularity = %g, want 0.55", req.Shape.Triangularity)
	}
	if req.Shape.RotationAngle != 0 {
		t.Errorf("rotation = %g, want unset", req.Shape.RotationAngle)
	}
}

func TestReactorNameDefaults(t *testing.T) {
	d := mustEval(t, `(tokamak-from-plasma :radial (list (plasma 300)) :elongation 1.5)`)
	if d.Lookup("reactor") == nil {
		t.Fatal("expected reactor with default name")
	}
}

func TestSphericalTokamakWithRotation(t *testing.T) {
	d := mustEval(t, `
(spherical-tokamak-from-plasma "st"
  :radial (list (gap 10) (solid 50) (gap 50) (plasma 300) (gap 60) (solid 100))
  :elongation 2.5
  :triangularity 0.5
  :rotation 180
  :curve-points 16)
`)
	r := lookup(t, d, "st")
	if r.Request.Family != build.FamilySphericalTokamakFromPlasma {
		t.Errorf("family = %s", r.Request.Family)
	}
	if r.Request.Shape.RotationAngle != 180 {
		t.Errorf("rotation = %g, want 180", r.Request.Shape.RotationAngle)
	}
	if r.Request.CurvePoints != 16 {
		t.Errorf("curve points = %d, want 16", r.Request.CurvePoints)
	}
}

func TestTokamakWithVerticalBuild(t *testing.T) {
	d := mustEval(t, `
(tokamak "t"
  :radial (list (gap 100) (solid 50) (plasma 200) (solid 50))
  :vertical (list (solid 40) (plasma 500) (solid 40))
  :triangularity 0.3)
`)
	r := lookup(t, d, "t")
	if len(r.Request.Vertical) != 3 {
		t.Fatalf("vertical build has %d entries, want 3", len(r.Request.Vertical))
	}
	if r.Request.Vertical[1] != build.Plasma(500) {
		t.Errorf("vertical[1] = %v", r.Request.Vertical[1])
	}
}

func TestVerticalRejectedForOtherFamilies(t *testing.T) {
	errs := evalErrors(t, `(tokamak-from-plasma :radial (list (plasma 300)) :vertical (list (plasma 300)))`)
	if !strings.Contains(errs[0].Message, "does not take :vertical") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestRadialRequired(t *testing.T) {
	errs := evalErrors(t, `(tokamak-from-plasma "x" :elongation 2)`)
	if !strings.Contains(errs[0].Message, "requires :radial") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestBadLayerEntry(t *testing.T) {
	evalErrors(t, `(tokamak-from-plasma :radial (list (plasma 300) 20))`)
	evalErrors(t, `(solid "thick")`)
	evalErrors(t, `(gap 1 2)`)
}

func TestVariableReference(t *testing.T) {
	d := mustEval(t, `
(def blanket (solid 30))
(def r (tokamak-from-plasma "v" :radial (list (gap 10) blanket (plasma 300)) :elongation 2))
(remove-part r "plasma")
`)
	r := lookup(t, d, "v")
	if len(r.Request.Radial) != 3 {
		t.Errorf("radial has %d entries, want 3", len(r.Request.Radial))
	}
	if !reflect.DeepEqual(r.Remove, []string{"plasma"}) {
		t.Errorf("remove = %v", r.Remove)
	}
}

func TestColors(t *testing.T) {
	d := mustEval(t, `
(tokamak-from-plasma "c"
  :radial (list (solid 30) (plasma 300))
  :elongation 2
  :colors (list (layer-color "plasma" (rgba 1 0.7 0.8 0.6))
                (layer-color "layer_1" (rgb 0 0 1))
                (layer-color "layer_2" "#ff0000")))
`)
	colors := lookup(t, d, "c").Request.Colors
	if got := colors["plasma"]; got != paint.RGBA(1, 0.7, 0.8, 0.6) {
		t.Errorf("plasma color = %v", got)
	}
	if got := colors["layer_1"]; got != paint.RGB(0, 0, 1) {
		t.Errorf("layer_1 color = %v", got)
	}
	if got := colors["layer_2"]; got != paint.RGB(1, 0, 0) {
		t.Errorf("layer_2 color = %v", got)
	}
}

func TestColorOutOfRange(t *testing.T) {
	evalErrors(t, `(rgb 2 0 0)`)
	evalErrors(t, `(rgba 1 0 0)`)
	evalErrors(t, `(layer-color "plasma" "not-a-color")`)
}

func TestRemovePartAndMaterialTags(t *testing.T) {
	d := mustEval(t, minimalSource+`
(def r (reactor "demo"))
(remove-part r "plasma")
(material-tags r "tungsten" (list "steel"))
`)
	r := lookup(t, d, "demo")
	if !reflect.DeepEqual(r.Remove, []string{"plasma"}) {
		t.Errorf("remove = %v", r.Remove)
	}
	if !reflect.DeepEqual(r.MaterialTags, []string{"tungsten", "steel"}) {
		t.Errorf("material tags = %v", r.MaterialTags)
	}
}

func TestRemovePartErrors(t *testing.T) {
	evalErrors(t, minimalSource+`(remove-part (reactor "demo"))`)
	evalErrors(t, minimalSource+`(remove-part (reactor "demo") "")`)
	evalErrors(t, `(remove-part "demo" "plasma")`)
}

func TestReactorLookupError(t *testing.T) {
	errs := evalErrors(t, `(reactor "nonexistent")`)
	if !strings.Contains(errs[0].Message, "nonexistent") {
		t.Errorf("expected error to mention 'nonexistent', got: %q", errs[0].Message)
	}
}

func TestPlace(t *testing.T) {
	d := mustEval(t, minimalSource+`(place (reactor "demo") :at (vec3 0 0 100) :rotate (vec3 0 0 90))`)
	loc := lookup(t, d, "demo").Location
	if loc.Translation != [3]float64{0, 0, 100} {
		t.Errorf("translation = %v", loc.Translation)
	}
	if loc.Rotation != [3]float64{0, 0, 90} {
		t.Errorf("rotation = %v", loc.Rotation)
	}
}

func TestVec3(t *testing.T) {
	evalErrors(t, `(vec3 1 2)`)
	evalErrors(t, `(vec3 1 2 "z")`)
}

func TestEvaluateAll(t *testing.T) {
	res, err := NewEngine().EvaluateAll(minimalSource + `(remove-part (reactor "demo") "layer_9")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("errors: %v", res.Errors)
	}
	if res.Design == nil {
		t.Fatal("expected design")
	}
	// layer_9 matches nothing and the plasma stays.
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", res.Warnings)
	}
	if res.Warnings[0].Reactor != "demo" {
		t.Errorf("warning reactor = %q", res.Warnings[0].Reactor)
	}
}

func TestEvaluateAllReportsInvalidBuild(t *testing.T) {
	res, err := NewEngine().EvaluateAll(`(tokamak-from-plasma "bad" :radial (list (solid 30)) :elongation 2)`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Design != nil {
		t.Error("expected nil design for invalid build")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "no plasma") {
		t.Errorf("errors = %v", res.Errors)
	}
}

// ---------------------------------------------------------------------------
// Empty source produces empty design (regression)
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	d := mustEval(t, "")
	if d.Len() != 0 {
		t.Errorf("expected empty design, got %d reactors", d.Len())
	}
}

// ---------------------------------------------------------------------------
// Plain arithmetic still works (regression)
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	mustEval(t, "(+ 1 2)")
}
