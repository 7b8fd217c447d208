package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagedResult(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int64
		limit      int
		wantPages  int
	}{
		{"empty", 0, 10, 0},
		{"exact fit", 20, 10, 2},
		{"partial last page", 15, 10, 2},
		{"single item", 1, 50, 1},
		{"limit one", 7, 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewPagedResult[int](1, tt.limit, tt.totalItems, nil)
			assert.Equal(t, tt.wantPages, result.TotalPages)
			assert.Equal(t, tt.totalItems, result.TotalItems)
			assert.Equal(t, tt.limit, result.Limit)
			assert.NotNil(t, result.Items)
		})
	}
}

func TestNewPagedResultKeepsItems(t *testing.T) {
	result := NewPagedResult(2, 3, 7, []string{"a", "b", "c"})
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, []string{"a", "b", "c"}, result.Items)
	assert.Equal(t, 3, result.TotalPages)
}
