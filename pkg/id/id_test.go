package id

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortedAndUnique(t *testing.T) {
	t.Parallel()

	prev := ""
	for i := 0; i < 1000; i++ {
		v := New()
		assert.Len(t, v, 26)
		assert.True(t, Valid(v))
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestNewConcurrent(t *testing.T) {
	t.Parallel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				v := New()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.False(t, Valid(""))
	assert.False(t, Valid("salary"))
	assert.True(t, Valid("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}

func TestGeneratorFixedClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	g := NewGenerator(func() time.Time { return at }, bytes.NewReader(make([]byte, 1024)))

	first := g.Next()
	second := g.Next()
	assert.Greater(t, second, first)
	assert.Equal(t, first[:10], second[:10])

	created, ok := Time(first)
	require.True(t, ok)
	assert.True(t, created.Equal(at), created.String())

	_, ok = Time("rent-then-buy")
	assert.False(t, ok)
}
