package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seekerrors "javaseeker/internal/errors"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		raw       string
		typ       string
		method    string
		params    []string
		anyParams bool
	}{
		{raw: "pkg.ClassA", typ: "pkg.ClassA"},
		{raw: "  ClassA  ", typ: "ClassA"},
		{raw: "pkg.Outer$Inner", typ: "pkg.Outer.Inner"},
		{raw: "java.util.List<String>", typ: "java.util.List"},
		{raw: "pkg.ClassA#methodA()", typ: "pkg.ClassA", method: "methodA", params: []string{}},
		{raw: "pkg.A#m(int,String)", typ: "pkg.A", method: "m", params: []string{"int", "String"}},
		{raw: "pkg.A#m(int, java.lang.String)", typ: "pkg.A", method: "m", params: []string{"int", "java.lang.String"}},
		{raw: "pkg.A#put(Map<String, List<Integer>>, int[])", typ: "pkg.A", method: "put", params: []string{"Map<String, List<Integer>>", "int[]"}},
		{raw: "pkg.A#run", typ: "pkg.A", method: "run", anyParams: true},
		{raw: "pkg.A#A(String...)", typ: "pkg.A", method: "A", params: []string{"String..."}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := ParseSpecifier(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, s.Raw)
			assert.Equal(t, tt.typ, s.Type)
			assert.Equal(t, tt.method, s.Method)
			assert.Equal(t, tt.params, s.Params)
			assert.Equal(t, tt.anyParams, s.AnyParams)
		})
	}
}

func TestParseSpecifierErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"#m()",
		"pkg..A",
		"pkg.A#",
		"pkg.A#()",
		"pkg.A#m(int",
		"pkg.A#m(int,)",
		"pkg.A#m(List<String)",
		"pkg.1A",
		"pkg.A#m-x()",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseSpecifier(raw)
			require.Error(t, err)
			assert.True(t, seekerrors.Is(err, seekerrors.InvalidSpecifier))
		})
	}
}

func TestSpecifierString(t *testing.T) {
	s, err := ParseSpecifier("pkg.Outer$Inner#m(int, String)")
	require.NoError(t, err)
	assert.Equal(t, "pkg.Outer.Inner#m(int,String)", s.String())
	assert.True(t, s.Qualified())
	assert.True(t, s.HasMethod())

	s, err = ParseSpecifier("A#run")
	require.NoError(t, err)
	assert.Equal(t, "A#run", s.String())
	assert.False(t, s.Qualified())
}
