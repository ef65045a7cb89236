package utils

import (
	"sync"
)

// WorkerPool bounds how many onboarding workflows execute at once. Submitted
// tasks queue until a worker is free.
type WorkerPool struct {
	tasks     chan func()
	waitGroup sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers and queue
// capacity.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		tasks: make(chan func(), queueSize),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues a task, blocking when the queue is full.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Shutdown stops accepting tasks and waits for in-flight ones to finish.
func (wp *WorkerPool) Shutdown() {
	close(wp.tasks)
	wp.waitGroup.Wait()
}
