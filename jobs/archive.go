package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// JobRecorder counts processed jobs.
type JobRecorder interface {
	JobProcessed(taskType, result string)
}

// ArchiveJob writes exported invoices to a directory tree laid out as
// <dir>/<workspace>/<yyyy-mm>/<filename>.
type ArchiveJob struct {
	Dir     string
	Logger  *slog.Logger
	Metrics JobRecorder
	clock   func() time.Time
}

// NewArchiveJob wires dependencies for the archive handlers.
func NewArchiveJob(dir string, logger *slog.Logger, metrics JobRecorder) *ArchiveJob {
	return &ArchiveJob{
		Dir:     dir,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handlers returns the task handlers served by the worker.
func (j *ArchiveJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskArchiveInvoice, Handler: j.HandleArchive},
		{Type: TaskPruneArchive, Handler: j.HandlePrune},
	}
}

// HandleArchive processes TaskArchiveInvoice tasks. Malformed payloads are
// dropped without retry.
func (j *ArchiveJob) HandleArchive(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Dir == "" {
		return errors.New("archive: handler not configured")
	}
	defer func() { j.record(TaskArchiveInvoice, err) }()

	var payload ArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("archive: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	path, err := j.pathFor(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("archive: mkdir: %w", err)
	}
	if err := os.WriteFile(path, payload.PDF, 0o644); err != nil {
		return fmt.Errorf("archive: write: %w", err)
	}
	j.logger().Info("invoice archived",
		slog.String("workspace", payload.Workspace),
		slog.String("invoice_id", payload.InvoiceID),
		slog.String("path", path),
	)
	return nil
}

// HandlePrune deletes archived documents older than the retention window.
func (j *ArchiveJob) HandlePrune(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Dir == "" {
		return errors.New("archive: handler not configured")
	}
	defer func() { j.record(TaskPruneArchive, err) }()

	var payload PrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("archive prune: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionDays <= 0 {
		return nil
	}
	cutoff := j.clock().AddDate(0, 0, -payload.RetentionDays)

	removed := 0
	walkErr := filepath.WalkDir(j.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".pdf") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("archive prune: %w", walkErr)
	}
	j.logger().Info("archive pruned", slog.Int("removed", removed), slog.Int("retention_days", payload.RetentionDays))
	return nil
}

func (j *ArchiveJob) pathFor(p ArchivePayload) (string, error) {
	name := filepath.Base(p.Filename)
	workspace := filepath.Base(p.Workspace)
	if name != p.Filename || workspace != p.Workspace || name == "." || workspace == "." || workspace == ".." {
		return "", fmt.Errorf("archive: unsafe path %q/%q", p.Workspace, p.Filename)
	}
	exported := p.ExportedAt
	if exported.IsZero() {
		exported = j.clock()
	}
	return filepath.Join(j.Dir, workspace, exported.UTC().Format("2006-01"), name), nil
}

func (j *ArchiveJob) record(taskType string, err error) {
	if j.Metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	j.Metrics.JobProcessed(taskType, result)
}

func (j *ArchiveJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
