package design

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/toroid/pkg/build"
)

func minimal(name string) *Reactor {
	return &Reactor{
		Name: name,
		Request: build.Request{
			Radial: build.RadialBuild{build.Gap(10), build.Solid(30), build.Plasma(300), build.Solid(20)},
			Shape:  build.ShapeParameters{Elongation: 2, Triangularity: 0.55},
		},
		Remove: []string{build.PlasmaName},
	}
}

func TestLookup(t *testing.T) {
	d := New()
	d.Add(minimal("a"))
	d.Add(minimal("b"))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, "b", d.Lookup("b").Name)
	assert.Nil(t, d.Lookup("c"))
}

func TestLookupKeepsFirstDuplicate(t *testing.T) {
	d := New()
	first := minimal("a")
	d.Add(first)
	d.Add(minimal("a"))
	assert.Same(t, first, d.Lookup("a"))
}

func TestPartNames(t *testing.T) {
	names, err := minimal("a").PartNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"layer_1", "layer_2"}, names)
}

func TestTagsDefaultToNames(t *testing.T) {
	r := minimal("a")
	tags, err := r.Tags()
	require.NoError(t, err)
	assert.Equal(t, []string{"layer_1", "layer_2"}, tags)

	r.MaterialTags = []string{"tungsten", "steel"}
	tags, err = r.Tags()
	require.NoError(t, err)
	assert.Equal(t, []string{"tungsten", "steel"}, tags)
}

func TestValidateAllClean(t *testing.T) {
	d := New()
	d.Add(minimal("a"))
	res := ValidateAll(d)
	assert.True(t, res.OK())
	assert.Empty(t, res.Warnings)
	assert.NoError(t, res.Err())
}

func TestValidateDuplicateAndEmptyNames(t *testing.T) {
	d := New()
	d.Add(minimal("a"))
	d.Add(minimal("a"))
	d.Add(minimal(""))
	errs := Validate(d)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "reactor a: duplicate")
	assert.Contains(t, errs[1].Error(), "no name")
}

func TestValidateBuildErrorUnwraps(t *testing.T) {
	r := minimal("bad")
	r.Request.Radial = build.RadialBuild{build.Solid(10), build.Solid(-1)}
	d := New()
	d.Add(r)
	res := ValidateAll(d)
	require.False(t, res.OK())
	var ibe *build.InvalidBuildError
	assert.True(t, errors.As(res.Err(), &ibe))
	assert.ErrorIs(t, res.Err(), build.ErrInvalidBuild)
}

func TestValidateMaterialTagMismatch(t *testing.T) {
	r := minimal("a")
	r.MaterialTags = []string{"tungsten"}
	d := New()
	d.Add(r)
	res := ValidateAll(d)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "1 material tags for 2 parts")
	assert.Equal(t, SeverityError, res.Errors[0].Severity)
}

func TestValidateEmptyTag(t *testing.T) {
	r := minimal("a")
	r.MaterialTags = []string{"tungsten", ""}
	d := New()
	d.Add(r)
	assert.False(t, ValidateAll(d).OK())
}

func TestValidateWarnings(t *testing.T) {
	r := minimal("a")
	r.Remove = []string{"layer_9"}
	d := New()
	d.Add(r)
	res := ValidateAll(d)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0].Message, "layer_9")
	assert.Contains(t, res.Warnings[1].Message, "plasma")
}

func TestValidateNothingLeft(t *testing.T) {
	r := minimal("a")
	r.Remove = []string{"layer_1", "plasma", "layer_2"}
	d := New()
	d.Add(r)
	res := ValidateAll(d)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "no parts left")
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "ValidationSeverity(7)", ValidationSeverity(7).String())
}
