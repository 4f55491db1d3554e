package iterator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromSlice(t *testing.T) {
	{
		// No batches
		iter := FromSlice([][]string{})
		assert.False(t, iter.HasNext())
		_, err := iter.Next()
		assert.ErrorContains(t, err, "iterator has finished")
	}
	{
		// Empty batches are produced as they are
		iter := FromSlice([][]string{{"a", "b"}, {}, {"c"}})
		batches, err := Collect(iter)
		assert.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "b"}, {}, {"c"}}, batches)

		assert.False(t, iter.HasNext())
		_, err = iter.Next()
		assert.ErrorContains(t, err, "iterator has finished")
	}
}
