package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"서울":       "서울",
		"100%":     `100\%`,
		"a_b":      `a\_b`,
		`back\sl`:  `back\\sl`,
		"' OR 1=1": "' OR 1=1",
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeLike(in), in)
	}
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, []string{"%산책%", `%50\%%`}, likePatterns([]string{"산책", "50%"}))
	assert.Empty(t, likePatterns(nil))
}
