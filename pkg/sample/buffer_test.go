package sample

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Empty(t *testing.T) {
	b := NewBuffer(5)

	snap := b.Snapshot()
	assert.NotNil(t, snap)
	assert.Len(t, snap, 0)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 5, b.Cap())
	assert.Len(t, b.Tail(3), 0)
}

func TestBuffer_PushBelowCapacity(t *testing.T) {
	b := NewBuffer(5)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []float64{1, 2, 3}, b.Snapshot())
}

func TestBuffer_OverflowKeepsNewest(t *testing.T) {
	b := NewBuffer(4)
	for i := 1; i <= 11; i++ {
		b.Push(float64(i))
	}

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []float64{8, 9, 10, 11}, b.Snapshot())
}

func TestBuffer_PushMany(t *testing.T) {
	tests := []struct {
		name    string
		initial []float64
		batch   []float64
		want    []float64
	}{
		{"fits", nil, []float64{1, 2}, []float64{1, 2}},
		{"wraps", []float64{1, 2, 3}, []float64{4, 5}, []float64{2, 3, 4, 5}},
		{"batch larger than capacity", []float64{1}, []float64{2, 3, 4, 5, 6, 7}, []float64{4, 5, 6, 7}},
		{"empty batch", []float64{1, 2}, nil, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(4)
			for _, v := range tt.initial {
				b.Push(v)
			}
			b.PushMany(tt.batch)
			assert.Equal(t, tt.want, b.Snapshot())
		})
	}
}

func TestBuffer_Tail(t *testing.T) {
	b := NewBuffer(5)
	for i := 1; i <= 7; i++ {
		b.Push(float64(i))
	}

	assert.Equal(t, []float64{6, 7}, b.Tail(2))
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, b.Tail(5))
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, b.Tail(50))
	assert.Len(t, b.Tail(-1), 0)
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewBuffer(3)
	b.Push(1)
	snap := b.Snapshot()
	snap[0] = 42

	assert.Equal(t, []float64{1}, b.Snapshot())
}

func TestBuffer_ZeroCapacityClamped(t *testing.T) {
	b := NewBuffer(0)
	b.Push(1)
	b.Push(2)
	assert.Equal(t, 1, b.Cap())
	assert.Equal(t, []float64{2}, b.Snapshot())
}

func TestBuffer_ConcurrentReaders(t *testing.T) {
	const total = 20000
	b := NewBuffer(100)

	var wg sync.WaitGroup
	done := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := b.Snapshot()
				assert.LessOrEqual(t, len(snap), 100)
				// Snapshots are consistent: strictly increasing, no gaps.
				for i := 1; i < len(snap); i++ {
					if snap[i] != snap[i-1]+1 {
						t.Errorf("torn snapshot at %d: %v then %v", i, snap[i-1], snap[i])
						return
					}
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		b.Push(float64(i))
	}
	close(done)
	wg.Wait()

	snap := b.Snapshot()
	require.Len(t, snap, 100)
	assert.Equal(t, float64(total-100), snap[0])
	assert.Equal(t, float64(total-1), snap[99])
}
