package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"", Both, true},
		{"both", Both, true},
		{"TO", To, true},
		{" from ", From, true},
		{"sideways", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.True(t, Both.includes(To))
	assert.True(t, Both.includes(From))
	assert.False(t, To.includes(From))
}

func TestReferenceSetDeduplicates(t *testing.T) {
	set := NewReferenceSet()
	a := Reference{Source: "self", QualifiedName: "p.A#a()", CodeContext: "void a() {}", Direction: To}
	b := a
	b.Direction = From

	assert.True(t, set.Add(a))
	assert.False(t, set.Add(a))
	assert.True(t, set.Add(b))
	b.CodeContext = "other"
	assert.True(t, set.Add(b))

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, 1, set.Count(To))
	assert.Equal(t, 2, set.Count(From))

	items := set.Items()
	assert.Equal(t, a, items[0])
	items[0].Source = "changed"
	assert.Equal(t, "self", set.Items()[0].Source)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	long := strings.Repeat("é", 2500)
	got := truncate(long, 2000)
	assert.Len(t, []rune(got), 2000)
	assert.True(t, strings.HasSuffix(got, "..."))
}
