package slice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnion(t *testing.T) {
	tests := map[string]struct {
		lists    [][]string
		expected []string
	}{
		"nothing":   {expected: nil},
		"one list":  {lists: [][]string{{"b", "a", "b"}}, expected: []string{"a", "b"}},
		"overlap":   {lists: [][]string{{"carol", "alice"}, nil, {"bob", "alice"}}, expected: []string{"alice", "bob", "carol"}},
		"no blanks": {lists: [][]string{{"", "x"}}, expected: []string{"x"}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, Union(test.lists...))
		})
	}
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, ""))
}
