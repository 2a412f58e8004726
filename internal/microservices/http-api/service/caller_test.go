package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want int
	}{
		{"first page", Page{Number: 1, Size: 6}, 0},
		{"third page", Page{Number: 3, Size: 6}, 12},
		{"zero page", Page{Number: 0, Size: 6}, 0},
		{"zero size", Page{Number: 4, Size: 0}, 0},
		{"saturates", Page{Number: math.MaxInt, Size: 6}, math.MaxInt},
		{"just fits", Page{Number: math.MaxInt/6 + 1, Size: 6}, math.MaxInt / 6 * 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.page.Offset())
		})
	}
}
