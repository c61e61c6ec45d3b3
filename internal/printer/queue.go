package printer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/thermal-driver/pkg/thermal"
)

// JobKind selects what a print job sends to the device.
type JobKind string

const (
	JobText     JobKind = "text"
	JobBarcode  JobKind = "barcode"
	JobBitmap   JobKind = "bitmap"
	JobTestPage JobKind = "test-page"
)

// PrintJob represents one queued print.
type PrintJob struct {
	ID        string
	PrinterID string
	Kind      JobKind

	// Text is the body for text jobs and the payload for barcode jobs.
	Text      string
	Symbology thermal.Barcode

	// Bitmap jobs: row-major MSB-first bits, ceil(Width*Height/8) bytes.
	Width  int
	Height int
	Bits   []byte

	// FeedAfter advances the paper past the tear bar when the job is done.
	FeedAfter int

	Retries   int
	Status    string // queued, printing, failed, completed
	Error     error
	CreatedAt time.Time
}

// PrintQueue runs print jobs sequentially with retry. One worker is
// deliberate: the drivers pace themselves with blocking waits, and a
// second in-flight job would just sit on the session lock anyway.
type PrintQueue struct {
	jobs       []*PrintJob
	mu         sync.Mutex
	pool       *ConnectionPool
	manager    *Manager
	maxRetries int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	onJobUpdate func(*PrintJob)
}

// NewPrintQueue creates a print queue and starts its worker.
func NewPrintQueue(pool *ConnectionPool, manager *Manager, maxRetries int) *PrintQueue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &PrintQueue{
		jobs:       make([]*PrintJob, 0),
		pool:       pool,
		manager:    manager,
		maxRetries: maxRetries,
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// OnJobUpdate registers a callback fired on every job status change.
func (q *PrintQueue) OnJobUpdate(fn func(*PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onJobUpdate = fn
}

// Enqueue adds a print job to the queue and returns its ID.
func (q *PrintQueue) Enqueue(job *PrintJob) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	job.ID = uuid.New().String()
	job.Status = "queued"
	job.CreatedAt = time.Now()
	q.jobs = append(q.jobs, job)

	q.notify(job)
	return job.ID
}

func (q *PrintQueue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *PrintQueue) processNextJob() {
	q.mu.Lock()

	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == "queued" {
			job = j
			job.Status = "printing"
			break
		}
	}

	q.mu.Unlock()

	if job == nil {
		return
	}
	q.notify(job)

	err := q.printJob(job)

	q.mu.Lock()
	defer q.mu.Unlock()

	if err != nil {
		job.Retries++
		job.Error = err

		if job.Retries >= q.maxRetries {
			job.Status = "failed"
			log.Printf("❌ Print job %s failed after %d retries: %v", job.ID, job.Retries, err)
		} else {
			job.Status = "queued"
			log.Printf("⚠️  Print job %s failed, retrying (%d/%d): %v",
				job.ID, job.Retries, q.maxRetries, err)
		}
	} else {
		job.Status = "completed"
		log.Printf("✅ Print job %s completed", job.ID)
	}
	q.notify(job)
}

func (q *PrintQueue) printJob(job *PrintJob) error {
	if !q.pool.IsConnected(job.PrinterID) {
		printer := q.manager.GetPrinter(job.PrinterID)
		if printer == nil {
			return fmt.Errorf("printer not found: %s", job.PrinterID)
		}

		baud, fw := q.manager.Calibration(job.PrinterID)
		if err := q.pool.Connect(printer, baud, fw); err != nil {
			return fmt.Errorf("failed to connect to printer: %w", err)
		}
	}

	return q.pool.WithDriver(job.PrinterID, func(drv *thermal.Printer) error {
		// A failed attempt may have left a partial command in the
		// device; reset the protocol state before retrying.
		if job.Retries > 0 {
			if err := drv.Init(); err != nil {
				return err
			}
		}

		var err error
		switch job.Kind {
		case JobText:
			err = drv.Write(job.Text)
		case JobBarcode:
			err = drv.PrintBarcode(job.Text, job.Symbology)
		case JobBitmap:
			err = drv.PrintBitmap(job.Width, job.Height, job.Bits)
		case JobTestPage:
			err = drv.TestPage()
		default:
			return fmt.Errorf("unknown job kind: %s", job.Kind)
		}
		if err != nil {
			return err
		}

		if job.FeedAfter > 0 {
			if err := drv.Feed(job.FeedAfter); err != nil {
				return err
			}
		}

		// Block until the device has really finished, so the next job
		// starts against an idle printer.
		return drv.Wait()
	})
}

func (q *PrintQueue) notify(job *PrintJob) {
	if q.onJobUpdate != nil {
		jobCopy := *job
		q.onJobUpdate(&jobCopy)
	}
}

// GetJob returns a copy of a job by ID, or nil.
func (q *PrintQueue) GetJob(jobID string) *PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			jobCopy := *job
			return &jobCopy
		}
	}

	return nil
}

// GetAllJobs returns copies of all jobs.
func (q *PrintQueue) GetAllJobs() []*PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobCopy := *job
		jobs[i] = &jobCopy
	}

	return jobs
}

// ClearCompleted removes completed jobs from the queue.
func (q *PrintQueue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*PrintJob, 0)
	for _, job := range q.jobs {
		if job.Status != "completed" {
			filtered = append(filtered, job)
		}
	}

	q.jobs = filtered
}

// Stop stops the print queue worker.
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}
