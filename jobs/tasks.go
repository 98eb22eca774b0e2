package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueArchive holds archive and prune tasks.
	QueueArchive = "invoice-archive"
	// TaskArchiveInvoice stores an exported PDF in the archive directory.
	TaskArchiveInvoice = "invoice:archive"
	// TaskPruneArchive removes archived PDFs past their retention.
	TaskPruneArchive = "invoice:archive-prune"
)

// ArchivePayload carries one exported document.
type ArchivePayload struct {
	Workspace  string    `json:"workspace"`
	InvoiceID  string    `json:"invoice_id"`
	Filename   string    `json:"filename"`
	PDF        []byte    `json:"pdf"`
	ExportedAt time.Time `json:"exported_at"`
}

// Validate checks the payload before it is queued or processed.
func (p ArchivePayload) Validate() error {
	switch {
	case p.Workspace == "":
		return errors.New("archive payload: workspace required")
	case p.Filename == "":
		return errors.New("archive payload: filename required")
	case len(p.PDF) == 0:
		return errors.New("archive payload: empty document")
	}
	return nil
}

// NewArchiveTask constructs an archive task.
func NewArchiveTask(payload ArchivePayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveInvoice, data, asynq.Queue(QueueArchive), asynq.MaxRetry(5)), nil
}

// PrunePayload configures an archive prune run.
type PrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewPruneTask builds the periodic prune task.
func NewPruneTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(PrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPruneArchive, body, asynq.Queue(QueueArchive)), nil
}
