package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMergesByProduct(t *testing.T) {
	var c Cart
	c = c.Add(1, "Tea", 5000, 2)
	c = c.Add(2, "Coffee", 12000, 1)
	c = c.Add(1, "Tea", 5000, 3)

	require.Len(t, c, 2)
	assert.Equal(t, int64(1), c[0].ProductID)
	assert.Equal(t, 5, c[0].Quantity)
	assert.Equal(t, int64(2), c[1].ProductID)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	var c Cart
	c = c.Add(3, "C", 1, 1)
	c = c.Add(1, "A", 1, 1)
	c = c.Add(2, "B", 1, 1)

	require.Len(t, c, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{c[0].ProductID, c[1].ProductID, c[2].ProductID})
}

func TestRemove(t *testing.T) {
	var c Cart
	c = c.Add(1, "Tea", 5000, 1)
	c = c.Add(2, "Coffee", 12000, 1)

	c = c.Remove(1)
	require.Len(t, c, 1)
	assert.Equal(t, int64(2), c[0].ProductID)

	// Removing an absent product is a no-op.
	c = c.Remove(99)
	assert.Len(t, c, 1)

	c = c.Remove(2)
	assert.True(t, c.Empty())
}

func TestTotal(t *testing.T) {
	var c Cart
	assert.Equal(t, int64(0), c.Total())

	c = c.Add(1, "Tea", 5000, 2)
	c = c.Add(2, "Coffee", 12000, 3)
	assert.Equal(t, int64(46000), c.Total())

	assert.Equal(t, int64(10000), c[0].Subtotal())
	assert.Equal(t, int64(36000), c[1].Subtotal())
}
