// Package queue provides the local durable queue of pending write
// operations. Mutations recorded while offline (or whose direct dispatch
// hit a connectivity failure) wait here, in strict enqueue order, until the
// processor replays them against the remote gateway.
package queue

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// Store is the slice of the repository the queue needs. Persistence errors
// degrade the queue to memory-only for the affected entry (logged, never
// fatal): the session keeps working, durability across restart is lost.
type Store interface {
	InsertMutation(*models.Mutation) error
	DeleteMutation(id string) error
	UpdateMutationFailure(*models.Mutation) error
	UpdateMutationPayload(*models.Mutation) error
	ListMutations() ([]*models.Mutation, error)
	ClearMutations() error
}

// DurableQueue is a FIFO queue of mutations mirrored to local storage.
// Order is preserved across mutation kinds: a later mutation may depend
// causally on an earlier one (an update targeting a not-yet-confirmed
// create).
type DurableQueue struct {
	mu    sync.Mutex
	items []*models.Mutation // enqueue order, pending and dead-lettered

	repo        Store
	maxAttempts int
	warnDepth   int
	log         *logrus.Entry
}

// New creates a DurableQueue. maxAttempts is the rejection ceiling before a
// mutation is dead-lettered; warnDepth is the depth that triggers a
// diagnostic warning (never a hard failure).
func New(repo Store, maxAttempts, warnDepth int) *DurableQueue {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if warnDepth <= 0 {
		warnDepth = 300
	}
	return &DurableQueue{
		repo:        repo,
		maxAttempts: maxAttempts,
		warnDepth:   warnDepth,
		log:         logging.WithComponent("queue"),
	}
}

// Load reads persisted mutations back into memory in enqueue order. Must
// complete before any other queue operation after a restart.
func (q *DurableQueue) Load() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.repo.ListMutations()
	if err != nil {
		return err
	}
	q.items = items

	if len(items) > 0 {
		q.log.WithFields(logrus.Fields{"count": len(items)}).
			Info("restored queued mutations from storage")
	}
	return nil
}

// Enqueue appends a mutation with a fresh id, zero attempts, and pending
// status. The payload must match the mutation kind.
func (q *DurableQueue) Enqueue(m *models.Mutation) (*models.Mutation, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	m.ID = uuid.New()
	m.EnqueuedAt = time.Now().Unix()
	m.Attempts = 0
	m.Status = models.MutationPending

	q.items = append(q.items, m)

	if err := q.repo.InsertMutation(m); err != nil {
		q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": m.ID}).
			Warn("failed to persist mutation, kept in memory only")
	}

	if depth := q.pendingLocked(); depth > q.warnDepth {
		q.log.WithFields(logrus.Fields{"depth": depth, "threshold": q.warnDepth}).
			Warn("queue depth exceeds threshold")
	}

	q.log.WithFields(logrus.Fields{"mutation_id": m.ID, "kind": m.Kind}).
		Debug("mutation enqueued")
	return m, nil
}

// Dequeue removes a mutation by id after a successful replay. Removing an
// absent id is a no-op, so replay removal stays idempotent.
func (q *DurableQueue) Dequeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.items {
		if m.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			if err := q.repo.DeleteMutation(id); err != nil {
				q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": id}).
					Warn("failed to remove persisted mutation")
			}
			return
		}
	}
}

// PeekAll returns the pending mutations in enqueue order. The returned
// slice is a snapshot; entries enqueued afterwards are not in it. State
// changes must go through queue methods.
func (q *DurableQueue) PeekAll() []*models.Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.Mutation, 0, len(q.items))
	for _, m := range q.items {
		if m.Status == models.MutationPending {
			out = append(out, m)
		}
	}
	return out
}

// MarkFailed records a rejected replay attempt. Once the attempt ceiling is
// reached the mutation is dead-lettered: kept in the queue table and
// visible through FailedCount, but excluded from future drains. The discard
// is an explicit, logged decision, never silent.
func (q *DurableQueue) MarkFailed(id string, cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, m := range q.items {
		if m.ID != id {
			continue
		}
		m.Attempts++
		if cause != nil {
			m.LastError = cause.Error()
		}
		if m.Attempts >= q.maxAttempts {
			m.Status = models.MutationFailed
			q.log.WithFields(logrus.Fields{
				"mutation_id": id,
				"kind":        m.Kind,
				"attempts":    m.Attempts,
			}).Warn("mutation dead-lettered after repeated rejection")
		}
		if err := q.repo.UpdateMutationFailure(m); err != nil {
			q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": id}).
				Warn("failed to persist mutation failure")
		}
		return
	}
}

// RewritePlaceholder replaces a reconciled placeholder id inside queued
// update payloads, so updates recorded against an offline-created sale
// target the confirmed server id when their turn comes.
func (q *DurableQueue) RewritePlaceholder(localID, objectID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, m := range q.items {
		if m.Kind != models.KindUpdateSale || m.UpdateSale == nil {
			continue
		}
		if m.UpdateSale.SaleID != localID {
			continue
		}
		m.UpdateSale.SaleID = objectID
		if err := q.repo.UpdateMutationPayload(m); err != nil {
			q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": m.ID}).
				Warn("failed to persist rewritten payload")
		}
	}
}

// DropCreateFor removes the pending create mutation that carries the given
// placeholder id. Used when an offline-created entity is deleted before its
// create ever reached the gateway: the create and the delete cancel out.
func (q *DurableQueue) DropCreateFor(localID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.items {
		if !m.IsCreate() {
			continue
		}
		var id string
		switch {
		case m.CreateSale != nil:
			id = m.CreateSale.LocalID
		case m.CreateFinancialNote != nil:
			id = m.CreateFinancialNote.LocalID
		case m.CreateGeneralNote != nil:
			id = m.CreateGeneralNote.LocalID
		}
		if id != localID {
			continue
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		if err := q.repo.DeleteMutation(m.ID); err != nil {
			q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": m.ID}).
				Warn("failed to remove persisted mutation")
		}
		return true
	}
	return false
}

// RetryFailed resets dead-lettered mutations to pending for another round.
func (q *DurableQueue) RetryFailed() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, m := range q.items {
		if m.Status != models.MutationFailed {
			continue
		}
		m.Status = models.MutationPending
		m.Attempts = 0
		m.LastError = ""
		if err := q.repo.UpdateMutationFailure(m); err != nil {
			q.log.WithError(err).WithFields(logrus.Fields{"mutation_id": m.ID}).
				Warn("failed to persist mutation reset")
		}
		count++
	}
	if count > 0 {
		q.log.WithFields(logrus.Fields{"count": count}).
			Info("reset dead-lettered mutations for retry")
	}
	return count
}

// Clear drops every entry. Explicit user-triggered reset only, never part
// of the normal flow.
func (q *DurableQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	if err := q.repo.ClearMutations(); err != nil {
		q.log.WithError(err).Warn("failed to clear persisted queue")
	}
	q.log.Info("queue cleared")
}

// Len returns the number of pending mutations.
func (q *DurableQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pendingLocked()
}

// FailedCount returns the number of dead-lettered mutations.
func (q *DurableQueue) FailedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, m := range q.items {
		if m.Status == models.MutationFailed {
			count++
		}
	}
	return count
}

func (q *DurableQueue) pendingLocked() int {
	count := 0
	for _, m := range q.items {
		if m.Status == models.MutationPending {
			count++
		}
	}
	return count
}
