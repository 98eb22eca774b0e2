package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nanofresh/invoicer/internal/invoice"
)

// DefaultPrefix namespaces every key written by the repository.
const DefaultPrefix = "invoicer"

var (
	// ErrNoDraft indicates the draft slot is empty.
	ErrNoDraft = errors.New("storage: no draft")
	// ErrCorrupt indicates a stored record could not be decoded.
	ErrCorrupt = errors.New("storage: corrupt record")
)

// Repository reads and writes invoice records in Redis. Each workspace owns
// one draft key and one history key holding a JSON array.
type Repository struct {
	client   *redis.Client
	prefix   string
	draftTTL time.Duration
}

// RepositoryOptions configures key naming and draft expiry.
type RepositoryOptions struct {
	Prefix   string
	DraftTTL time.Duration // 0 keeps drafts until cleared
}

// NewRepository constructs a Repository.
func NewRepository(client *redis.Client, opts RepositoryOptions) *Repository {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repository{client: client, prefix: prefix, draftTTL: opts.DraftTTL}
}

// DraftKey returns the key of the workspace draft slot.
func (r *Repository) DraftKey(workspace string) string {
	return r.prefix + ":" + workspace + ":draft"
}

// HistoryKey returns the key of the workspace history list.
func (r *Repository) HistoryKey(workspace string) string {
	return r.prefix + ":" + workspace + ":history"
}

// GetDraft loads the draft of a workspace.
func (r *Repository) GetDraft(ctx context.Context, workspace string) (invoice.Invoice, error) {
	payload, err := r.client.Get(ctx, r.DraftKey(workspace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return invoice.Invoice{}, ErrNoDraft
		}
		return invoice.Invoice{}, fmt.Errorf("storage: get draft: %w", err)
	}
	var inv invoice.Invoice
	if err := json.Unmarshal(payload, &inv); err != nil {
		return invoice.Invoice{}, fmt.Errorf("%w: draft: %v", ErrCorrupt, err)
	}
	return inv, nil
}

// PutDraft overwrites the draft slot.
func (r *Repository) PutDraft(ctx context.Context, workspace string, inv invoice.Invoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("storage: encode draft: %w", err)
	}
	if err := r.client.Set(ctx, r.DraftKey(workspace), data, r.draftTTL).Err(); err != nil {
		return fmt.Errorf("storage: set draft: %w", err)
	}
	return nil
}

// DeleteDraft empties the draft slot.
func (r *Repository) DeleteDraft(ctx context.Context, workspace string) error {
	if err := r.client.Del(ctx, r.DraftKey(workspace)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("storage: delete draft: %w", err)
	}
	return nil
}

// DraftExists reports whether the draft slot holds a value.
func (r *Repository) DraftExists(ctx context.Context, workspace string) (bool, error) {
	n, err := r.client.Exists(ctx, r.DraftKey(workspace)).Result()
	if err != nil {
		return false, fmt.Errorf("storage: draft exists: %w", err)
	}
	return n > 0, nil
}

// GetHistory loads the history list, most recent first. A missing key
// yields an empty list.
func (r *Repository) GetHistory(ctx context.Context, workspace string) ([]invoice.Invoice, error) {
	payload, err := r.client.Get(ctx, r.HistoryKey(workspace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []invoice.Invoice{}, nil
		}
		return nil, fmt.Errorf("storage: get history: %w", err)
	}
	var history []invoice.Invoice
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrCorrupt, err)
	}
	if history == nil {
		history = []invoice.Invoice{}
	}
	return history, nil
}

// PutHistory overwrites the history list.
func (r *Repository) PutHistory(ctx context.Context, workspace string, history []invoice.Invoice) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("storage: encode history: %w", err)
	}
	if err := r.client.Set(ctx, r.HistoryKey(workspace), data, 0).Err(); err != nil {
		return fmt.Errorf("storage: set history: %w", err)
	}
	return nil
}

// CommitHistory writes the history list and clears the draft slot in a
// single MULTI/EXEC.
func (r *Repository) CommitHistory(ctx context.Context, workspace string, history []invoice.Invoice) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("storage: encode history: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.HistoryKey(workspace), data, 0)
		pipe.Del(ctx, r.DraftKey(workspace))
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: commit history: %w", err)
	}
	return nil
}
