package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	custom := NewDomainError("INSUFFICIENT_STOCK", "only 3 units left")

	assert.True(t, errors.Is(custom, ErrInsufficientStock))
	assert.True(t, errors.Is(fmt.Errorf("allocate: %w", custom), ErrInsufficientStock))
	assert.False(t, errors.Is(custom, ErrNotFound))
	assert.Equal(t, "only 3 units left", custom.Error())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 0}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.PageSize)

	f = Filter{Page: 3, PageSize: 10000}.Normalize()
	assert.Equal(t, 500, f.PageSize)
	assert.Equal(t, 1000, Filter{Page: 3, PageSize: 500}.Offset())
}
