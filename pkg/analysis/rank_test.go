package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseRank(t *testing.T) {
	groups := []GroupCount{
		{"d", 1}, {"b", 5}, {"a", 5}, {"c", 3}, {"e", 1},
	}

	ranked := DenseRank(groups)

	want := []RankedGroup{
		{GroupCount{"a", 5}, 1},
		{GroupCount{"b", 5}, 1},
		{GroupCount{"c", 3}, 2},
		{GroupCount{"d", 1}, 3},
		{GroupCount{"e", 1}, 3},
	}
	assert.Equal(t, want, ranked)
	assert.Equal(t, GroupCount{"d", 1}, groups[0], "input is not reordered")
}

func TestDenseRankEmpty(t *testing.T) {
	assert.Empty(t, DenseRank(nil))
}

func TestCompileLike(t *testing.T) {
	tests := []struct {
		pattern string
		in      string
		want    bool
	}{
		{"%Banyan Fig%", "Ficus :: Banyan Fig", true},
		{"%Banyan Fig%", "Banyan Fig", true},
		{"%Banyan Fig%", "banyan fig", false},
		{"DPW Maintained", "DPW Maintained", true},
		{"DPW Maintained", "DPW Maintained Tree", false},
		{"DPW%", "DPW Maintained", true},
		{"_PW Maintained", "DPW Maintained", true},
		{"_PW Maintained", "PW Maintained", false},
		{"100% sure", "100% sure", true},
		{`100\% sure`, "100% sure", true},
		{`100\% sure`, "100 percent sure", false},
		{"a.b", "axb", false},
		{"%", "", true},
		{"line%", "line\nbreak", true},
	}
	for _, tt := range tests {
		p, err := CompileLike(tt.pattern)
		if !assert.NoError(t, err, tt.pattern) {
			continue
		}
		assert.Equal(t, tt.want, p.Match(tt.in), "%q LIKE %q", tt.in, tt.pattern)
		assert.Equal(t, tt.pattern, p.String())
	}

	_, err := CompileLike(`trailing\`)
	assert.Error(t, err)
}

func TestPermitNumberPattern(t *testing.T) {
	assert.True(t, PermitNumberPattern.MatchString("Permit Number 77221"))
	assert.True(t, PermitNumberPattern.MatchString("Permit 12345"))
	assert.True(t, PermitNumberPattern.MatchString("Permit No 4411 on file"))
	assert.False(t, PermitNumberPattern.MatchString("none"))
	assert.False(t, PermitNumberPattern.MatchString(""))
}
