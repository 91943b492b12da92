package job

import (
	"time"
)

type Job interface {
	Execute()
}

type Queue chan Job

func NewQueue(size int) Queue {
	return make(Queue, size)
}

// Dispatch enqueues a job after an optional delay without blocking the
// caller.
func (q Queue) Dispatch(job Job, delay time.Duration) {
	go func() {
		if delay > 0 {
			<-time.After(delay)
		}
		q <- job
	}()
}

type WorkerPool struct {
	workers []Worker
}

func NewWorkerPool(size int, queue Queue) *WorkerPool {
	workers := make([]Worker, size)
	for i := 0; i < size; i++ {
		workers[i] = NewWorker(queue)
	}
	return &WorkerPool{workers}
}

func (p *WorkerPool) Start() {
	for _, worker := range p.workers {
		worker.Start()
	}
}

type Worker struct {
	jobQueue Queue
}

func NewWorker(jobQueue Queue) Worker {
	return Worker{jobQueue}
}

func (w *Worker) Start() {
	go func() {
		for job := range w.jobQueue {
			job.Execute()
		}
	}()
}
