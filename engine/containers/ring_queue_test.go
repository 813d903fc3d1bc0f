package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueOrder(t *testing.T) {
	q := NewRingQueue[int](4)

	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.True(t, q.IsFull())

	for i := 1; i <= 4; i++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
}

func TestRingQueueFull(t *testing.T) {
	q := NewRingQueue[string](1)
	require.NoError(t, q.Enqueue("a"))

	err := q.Enqueue("b")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRingQueueEmpty(t *testing.T) {
	q := NewRingQueue[int](2)

	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueuePeek(t *testing.T) {
	q := NewRingQueue[int](2)
	require.NoError(t, q.Enqueue(7))

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, q.Len())
}

func TestRingQueueWrapAround(t *testing.T) {
	q := NewRingQueue[int](3)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, q.Enqueue(3))
	require.NoError(t, q.Enqueue(4))
	assert.True(t, q.IsFull())

	want := []int{2, 3, 4}
	for _, expected := range want {
		v, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}
}
