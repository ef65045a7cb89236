package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(4, 16)

	var done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			done.Add(1)
		})
	}

	wg.Wait()
	pool.Shutdown()
	assert.Equal(t, int32(20), done.Load())
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 16)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		})
	}

	wg.Wait()
	pool.Shutdown()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorkerPool_ShutdownWaitsForInFlight(t *testing.T) {
	pool := NewWorkerPool(1, 1)

	var finished atomic.Bool
	pool.Submit(func() {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	pool.Shutdown()
	assert.True(t, finished.Load(), "Shutdown returns only after in-flight tasks finish")
}
