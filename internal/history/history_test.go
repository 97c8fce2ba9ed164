package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLatestN(t *testing.T) {
	b := NewBuffer()

	b.Append("car-1", 10, 1000)
	b.Append("car-1", 12, 2000)

	window := b.LatestN("car-1")
	require.Len(t, window, 2)
	assert.Equal(t, Entry{SpeedMS: 10, ReceivedAtMs: 1000}, window[0])
	assert.Equal(t, Entry{SpeedMS: 12, ReceivedAtMs: 2000}, window[1])
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 8; i++ {
		b.Append("car-1", float64(i), int64(i)*1000)
	}

	window := b.LatestN("car-1")
	require.Len(t, window, 5)
	assert.Equal(t, 3.0, window[0].SpeedMS, "oldest kept entry")
	assert.Equal(t, 7.0, window[4].SpeedMS, "newest entry")
}

func TestVehiclesAreIndependent(t *testing.T) {
	b := NewBuffer()
	b.Append("car-1", 5, 1000)
	b.Append("car-2", 9, 1000)

	assert.Len(t, b.LatestN("car-1"), 1)
	assert.Len(t, b.LatestN("car-2"), 1)
	assert.Empty(t, b.LatestN("car-3"))
}

func TestLatestNReturnsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append("car-1", 5, 1000)

	window := b.LatestN("car-1")
	window[0].SpeedMS = 99

	assert.Equal(t, 5.0, b.LatestN("car-1")[0].SpeedMS)
}

func TestConcurrentAppends(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Append("car-1", float64(j), int64(j))
				b.LatestN("car-1")
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, b.LatestN("car-1"), 5)
}
