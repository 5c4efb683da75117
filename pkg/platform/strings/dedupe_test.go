package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil stays nil", nil, nil},
		{"first appearance wins", []string{"  Office Space ", "coworking", "office space"}, []string{"office space", "coworking"}},
		{"blanks dropped", []string{"", "   ", "hybrid"}, []string{"hybrid"}},
		{"all blank", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrimLower(tt.in))
		})
	}
}
