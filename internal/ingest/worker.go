package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/helm/internal/storage"
)

// JobType is the queue type of text-extraction jobs.
const JobType = "document_extract"

// JobStore abstracts the job queue and document operations the worker needs.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) (bool, error)
	GetDocument(id string) (storage.Document, error)
	MarkDocumentIndexed(id, text string) error
	MarkDocumentFailed(id, reason string) error
}

// TextExtractor produces searchable text for a document.
type TextExtractor interface {
	Extract(ctx context.Context, doc storage.Document) (string, error)
}

// Worker processes document_extract jobs from the SQLite job queue.
type Worker struct {
	store     JobStore
	extractor TextExtractor
	poll      time.Duration
	logger    *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, extractor TextExtractor, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:     store,
		extractor: extractor,
		poll:      pollInterval,
		logger:    slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled. Consecutive jobs are processed
// without waiting.
func (w *Worker) Run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		worked, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("ingest iteration failed", "error", err)
		}
		if worked {
			t.Reset(0)
		} else {
			t.Reset(w.poll)
		}
	}
}

// RunOnce claims and processes a single job. It reports whether a job was
// claimed, whatever its outcome.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	docID, err := w.process(ctx, job)
	if err != nil {
		w.fail(job, docID, err)
		return true, nil
	}
	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

type extractPayload struct {
	DocumentID string `json:"document_id"`
}

func (w *Worker) process(ctx context.Context, job *storage.Job) (string, error) {
	var payload extractPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return "", fmt.Errorf("parsing payload: %w", err)
	}

	doc, err := w.store.GetDocument(payload.DocumentID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.Info("document deleted before extraction", "document_id", payload.DocumentID, "job_id", job.ID)
		return "", nil
	}
	if err != nil {
		return payload.DocumentID, fmt.Errorf("loading document %s: %w", payload.DocumentID, err)
	}

	text, err := w.extractor.Extract(ctx, doc)
	if err != nil {
		return doc.ID, fmt.Errorf("extracting %s document: %w", doc.Kind, err)
	}
	if err := w.store.MarkDocumentIndexed(doc.ID, text); err != nil {
		return doc.ID, err
	}
	w.logger.Info("document indexed", "document_id", doc.ID, "chars", len(text))
	return doc.ID, nil
}

func (w *Worker) fail(job *storage.Job, docID string, cause error) {
	w.logger.Warn("job failed", "job_id", job.ID, "document_id", docID, "error", cause)
	retry, err := w.store.FailJob(job.ID, cause.Error())
	if err != nil {
		w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", err)
		return
	}
	if retry || docID == "" {
		return
	}
	if err := w.store.MarkDocumentFailed(docID, cause.Error()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		w.logger.Error("failed to mark document as failed", "document_id", docID, "error", err)
	}
}

// DocumentStore persists documents and queues their extraction.
type DocumentStore interface {
	SaveDocument(d storage.Document) error
	DeleteDocument(id string) error
	EnqueueJob(job storage.Job) error
}

// Submit stores doc with a fresh id and queues it for extraction. If the job
// cannot be queued the document is removed again, so no pending document is
// left without a job.
func Submit(store DocumentStore, doc storage.Document) (storage.Document, error) {
	doc.ID = uuid.New().String()
	doc.Status = storage.DocumentPending
	doc.CreatedAt = time.Now().UTC()
	if err := store.SaveDocument(doc); err != nil {
		return storage.Document{}, err
	}

	payload, err := json.Marshal(extractPayload{DocumentID: doc.ID})
	if err != nil {
		return storage.Document{}, err
	}
	job := storage.Job{ID: uuid.New().String(), Type: JobType, PayloadJSON: string(payload)}
	if err := store.EnqueueJob(job); err != nil {
		err = fmt.Errorf("queueing extraction: %w", err)
		if delErr := store.DeleteDocument(doc.ID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("removing unqueued document %s: %w", doc.ID, delErr))
		}
		return storage.Document{}, err
	}
	return doc, nil
}
