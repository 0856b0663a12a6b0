package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/build"
	"github.com/chazu/toroid/pkg/design"
	"github.com/chazu/toroid/pkg/paint"
	"github.com/chazu/toroid/pkg/reactor"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms reactor source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: remove-part -> remove_part
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpLayer wraps a build.Layer returned by gap, solid and plasma.
type sexpLayer struct {
	layer build.Layer
}

func (l *sexpLayer) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %g)", l.layer.Type, l.layer.Thickness)
}
func (l *sexpLayer) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a paint.Color.
type sexpColor struct {
	color paint.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(color %q)", c.color.Hex())
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpLayerColor binds a color to a profile name.
type sexpLayerColor struct {
	name  string
	color paint.Color
}

func (c *sexpLayerColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(layer-color %q %q)", c.name, c.color.Hex())
}
func (c *sexpLayerColor) Type() *zygo.RegisteredType { return nil }

// sexpReactorRef points at a reactor registered in the design.
type sexpReactorRef struct {
	r *design.Reactor
}

func (r *sexpReactorRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(reactor %q)", r.r.Name)
}
func (r *sexpReactorRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a 3-vector.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toLayer extracts a build.Layer from a sexpLayer.
func toLayer(s zygo.Sexp) (build.Layer, error) {
	if l, ok := s.(*sexpLayer); ok {
		return l.layer, nil
	}
	return build.Layer{}, fmt.Errorf("expected layer (gap, solid or plasma), got %T (%s)", s, s.SexpString(nil))
}

// toLayers extracts a list of layers.
func toLayers(s zygo.Sexp) ([]build.Layer, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	layers := make([]build.Layer, 0, len(items))
	for i, item := range items {
		l, err := toLayer(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

// toColor accepts a color value or a "#rrggbb" / "#rrggbbaa" string.
func toColor(s zygo.Sexp) (paint.Color, error) {
	switch v := s.(type) {
	case *sexpColor:
		return v.color, nil
	case *zygo.SexpStr:
		return paint.ParseHex(v.S)
	}
	return paint.Color{}, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
}

// toReactor extracts the reactor from a sexpReactorRef.
func toReactor(s zygo.Sexp) (*design.Reactor, error) {
	if ref, ok := s.(*sexpReactorRef); ok {
		return ref.r, nil
	}
	return nil, fmt.Errorf("expected reactor reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toStrings flattens string arguments and lists of strings.
func toStrings(args []zygo.Sexp) ([]string, error) {
	var out []string
	for _, a := range args {
		if s, ok := a.(*zygo.SexpStr); ok {
			out = append(out, s.S)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("expected string or list of strings: %w", err)
		}
		for _, item := range items {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// layerBuiltin returns the builtin for one layer type: (solid 30).
func layerBuiltin(t build.LayerType) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument (thickness), got %d", t, len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: thickness: %w", t, err)
		}
		return &sexpLayer{layer: build.Layer{Type: t, Thickness: f}}, nil
	}
}

// reactorBuiltin returns the builtin that registers a reactor of family f:
//
//	(tokamak-from-plasma "name" :radial (list ...) :elongation 2
//	                     :triangularity 0.55 :rotation 180 :colors (list ...))
//
// The name is optional. :vertical is only accepted by the tokamak family.
func reactorBuiltin(d *design.Design, f build.Family) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		fn := f.String()
		pa := parseArgs(args)
		r := &design.Reactor{
			Name:    reactor.DefaultName,
			Request: build.Request{Family: f},
		}

		if len(pa.positional) > 0 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
			}
			r.Name = s
		}

		v, ok := pa.kw["radial"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s requires :radial", fn)
		}
		radial, err := toLayers(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: radial: %w", fn, err)
		}
		r.Request.Radial = radial

		if v, ok := pa.kw["vertical"]; ok {
			if f != build.FamilyTokamak {
				return zygo.SexpNull, fmt.Errorf("%s does not take :vertical", fn)
			}
			vertical, err := toLayers(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: vertical: %w", fn, err)
			}
			r.Request.Vertical = vertical
		}

		floats := map[string]*float64{
			"elongation":    &r.Request.Shape.Elongation,
			"triangularity": &r.Request.Shape.Triangularity,
			"rotation":      &r.Request.Shape.RotationAngle,
		}
		for key, dst := range floats {
			if v, ok := pa.kw[key]; ok {
				x, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fn, key, err)
				}
				*dst = x
			}
		}

		if v, ok := pa.kw["curve-points"]; ok {
			x, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: curve-points: %w", fn, err)
			}
			r.Request.CurvePoints = int(x)
		}

		if v, ok := pa.kw["colors"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: colors: %w", fn, err)
			}
			r.Request.Colors = make(map[string]paint.Color, len(items))
			for _, item := range items {
				lc, ok := item.(*sexpLayerColor)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("%s: colors: expected layer-color, got %T (%s)", fn, item, item.SexpString(nil))
				}
				r.Request.Colors[lc.name] = lc.color
			}
		}

		d.Add(r)
		return &sexpReactorRef{r: r}, nil
	}
}

// registerBuiltins installs the reactor DSL builtins into a zygomys
// environment. The builtins populate d during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, d *design.Design) {

	// -----------------------------------------------------------------------
	// (gap 10) (solid 30) (plasma 300)
	// -----------------------------------------------------------------------
	env.AddFunction("gap", layerBuiltin(build.LayerGap))
	env.AddFunction("solid", layerBuiltin(build.LayerSolid))
	env.AddFunction("plasma", layerBuiltin(build.LayerPlasma))

	// -----------------------------------------------------------------------
	// (rgb 1 0 0) (rgba 1 0.7 0.8 0.6)
	// -----------------------------------------------------------------------
	color := func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		want := 3
		if name == "rgba" {
			want = 4
		}
		if len(args) != want {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly %d arguments, got %d", name, want, len(args))
		}
		c := [4]float64{0, 0, 0, 1}
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: component %d: %w", name, i, err)
			}
			c[i] = f
		}
		col := paint.RGBA(c[0], c[1], c[2], c[3])
		if !col.Valid() {
			return zygo.SexpNull, fmt.Errorf("%s: components must be in [0, 1], got %s", name, col)
		}
		return &sexpColor{color: col}, nil
	}
	env.AddFunction("rgb", color)
	env.AddFunction("rgba", color)

	// -----------------------------------------------------------------------
	// (layer-color "plasma" (rgba 1 0.7 0.8 0.6))
	// (layer-color "layer_1" "#1f77b4")
	// -----------------------------------------------------------------------
	env.AddFunction("layer_color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("layer-color requires a name and a color")
		}
		layer, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer-color: name: %w", err)
		}
		c, err := toColor(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer-color: %w", err)
		}
		return &sexpLayerColor{name: layer, color: c}, nil
	})

	// -----------------------------------------------------------------------
	// (tokamak-from-plasma ...) (spherical-tokamak-from-plasma ...) (tokamak ...)
	//
	// Note: registered with underscores because zygomys does not support
	// hyphens in identifiers. The preprocessor converts them in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("tokamak_from_plasma", reactorBuiltin(d, build.FamilyTokamakFromPlasma))
	env.AddFunction("spherical_tokamak_from_plasma", reactorBuiltin(d, build.FamilySphericalTokamakFromPlasma))
	env.AddFunction("tokamak", reactorBuiltin(d, build.FamilyTokamak))

	// -----------------------------------------------------------------------
	// (reactor "name")
	// -----------------------------------------------------------------------
	env.AddFunction("reactor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("reactor requires a name argument")
		}
		rName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("reactor: name: %w", err)
		}
		r := d.Lookup(rName)
		if r == nil {
			return zygo.SexpNull, fmt.Errorf("reactor: no reactor named %q", rName)
		}
		return &sexpReactorRef{r: r}, nil
	})

	// -----------------------------------------------------------------------
	// (remove-part r "plasma" ...)
	// -----------------------------------------------------------------------
	env.AddFunction("remove_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("remove-part requires a reactor and at least one part name")
		}
		r, err := toReactor(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("remove-part: %w", err)
		}
		names, err := toStrings(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("remove-part: %w", err)
		}
		for _, n := range names {
			if n == "" {
				return zygo.SexpNull, fmt.Errorf("remove-part: empty part name")
			}
		}
		r.Remove = append(r.Remove, names...)
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (material-tags r "tungsten" "steel" ...)
	// -----------------------------------------------------------------------
	env.AddFunction("material_tags", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("material-tags requires a reactor and at least one tag")
		}
		r, err := toReactor(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material-tags: %w", err)
		}
		tags, err := toStrings(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material-tags: %w", err)
		}
		r.MaterialTags = tags
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		var v [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (place r :at (vec3 0 0 100) :rotate (vec3 0 0 90))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a reactor reference as first argument")
		}
		r, err := toReactor(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		loc := assembly.Location{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			loc.Translation = vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			loc.Rotation = vec
		}
		r.Location = loc
		return pa.positional[0], nil
	})
}
