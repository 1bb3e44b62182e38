package queue

import (
	"errors"
	"testing"

	"github.com/hotshotfinger/geprekpos/backend/internal/models"
)

// memStore is an in-memory queue.Store for tests.
type memStore struct {
	rows    map[string]*models.Mutation
	order   []string
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.Mutation)}
}

func (s *memStore) InsertMutation(m *models.Mutation) error {
	if s.failAll {
		return errors.New("disk full")
	}
	clone := *m
	s.rows[m.ID] = &clone
	s.order = append(s.order, m.ID)
	return nil
}

func (s *memStore) DeleteMutation(id string) error {
	if s.failAll {
		return errors.New("disk full")
	}
	delete(s.rows, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) UpdateMutationFailure(m *models.Mutation) error {
	if s.failAll {
		return errors.New("disk full")
	}
	if row, ok := s.rows[m.ID]; ok {
		row.Attempts = m.Attempts
		row.Status = m.Status
		row.LastError = m.LastError
	}
	return nil
}

func (s *memStore) UpdateMutationPayload(m *models.Mutation) error {
	if s.failAll {
		return errors.New("disk full")
	}
	if _, ok := s.rows[m.ID]; ok {
		clone := *m
		s.rows[m.ID] = &clone
	}
	return nil
}

func (s *memStore) ListMutations() ([]*models.Mutation, error) {
	out := make([]*models.Mutation, 0, len(s.order))
	for _, id := range s.order {
		clone := *s.rows[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memStore) ClearMutations() error {
	s.rows = make(map[string]*models.Mutation)
	s.order = nil
	return nil
}

func createSaleMutation(localID string) *models.Mutation {
	return &models.Mutation{
		Kind: models.KindCreateSale,
		CreateSale: &models.CreateSalePayload{
			LocalID:     localID,
			ProductID:   "p1",
			ProductName: "Geprek Original",
			Price:       10000,
			Quantity:    2,
		},
	}
}

func updateSaleMutation(saleID string) *models.Mutation {
	price := int64(12000)
	return &models.Mutation{
		Kind: models.KindUpdateSale,
		UpdateSale: &models.UpdateSalePayload{
			SaleID: saleID,
			Fields: models.SaleFields{Price: &price},
		},
	}
}

func TestEnqueuePreservesOrder(t *testing.T) {
	q := New(newMemStore(), 5, 300)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		m, err := q.Enqueue(createSaleMutation("local-" + string(rune('a'+i))))
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, m.ID)
	}

	pending := q.PeekAll()
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	for i, m := range pending {
		if m.ID != ids[i] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i], m.ID)
		}
	}
}

func TestEnqueueRejectsMismatchedPayload(t *testing.T) {
	q := New(newMemStore(), 5, 300)

	m := &models.Mutation{Kind: models.KindCreateSale}
	if _, err := q.Enqueue(m); err == nil {
		t.Fatal("expected validation error for missing payload")
	}

	m = createSaleMutation("local-x")
	m.Kind = models.KindUpdateStock
	if _, err := q.Enqueue(m); err == nil {
		t.Fatal("expected validation error for kind mismatch")
	}
}

func TestDequeueIsIdempotent(t *testing.T) {
	q := New(newMemStore(), 5, 300)

	m, err := q.Enqueue(createSaleMutation("local-a"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	q.Dequeue(m.ID)
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}

	// Removing again must be a no-op.
	q.Dequeue(m.ID)
	q.Dequeue("does-not-exist")
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after repeat dequeue, got %d", q.Len())
	}
}

func TestLoadRestoresPersistedOrder(t *testing.T) {
	repo := newMemStore()
	q := New(repo, 5, 300)

	first, _ := q.Enqueue(createSaleMutation("local-a"))
	second, _ := q.Enqueue(updateSaleMutation("local-a"))

	// Simulate a restart on the same storage.
	reloaded := New(repo, 5, 300)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	pending := reloaded.PeekAll()
	if len(pending) != 2 {
		t.Fatalf("expected 2 restored mutations, got %d", len(pending))
	}
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Errorf("restored order differs: got %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestMarkFailedDeadLettersAtCeiling(t *testing.T) {
	q := New(newMemStore(), 3, 300)

	m, _ := q.Enqueue(createSaleMutation("local-a"))

	cause := errors.New("status 422")
	q.MarkFailed(m.ID, cause)
	q.MarkFailed(m.ID, cause)
	if q.Len() != 1 || q.FailedCount() != 0 {
		t.Fatalf("expected still pending at 2 attempts, pending=%d failed=%d", q.Len(), q.FailedCount())
	}

	q.MarkFailed(m.ID, cause)
	if q.Len() != 0 {
		t.Errorf("dead-lettered mutation still counted as pending")
	}
	if q.FailedCount() != 1 {
		t.Errorf("expected 1 dead-lettered mutation, got %d", q.FailedCount())
	}
	if got := q.PeekAll(); len(got) != 0 {
		t.Errorf("dead-lettered mutation still returned by PeekAll")
	}
}

func TestRetryFailedResetsDeadLetters(t *testing.T) {
	q := New(newMemStore(), 1, 300)

	m, _ := q.Enqueue(createSaleMutation("local-a"))
	q.MarkFailed(m.ID, errors.New("rejected"))
	if q.FailedCount() != 1 {
		t.Fatalf("expected dead-lettered mutation")
	}

	if reset := q.RetryFailed(); reset != 1 {
		t.Fatalf("expected 1 reset, got %d", reset)
	}
	if q.Len() != 1 || q.FailedCount() != 0 {
		t.Errorf("expected mutation back in pending, pending=%d failed=%d", q.Len(), q.FailedCount())
	}
}

func TestRewritePlaceholderTargetsQueuedUpdates(t *testing.T) {
	q := New(newMemStore(), 5, 300)

	q.Enqueue(createSaleMutation("local-a"))
	update, _ := q.Enqueue(updateSaleMutation("local-a"))
	other, _ := q.Enqueue(updateSaleMutation("srv-99"))

	q.RewritePlaceholder("local-a", "srv-42")

	pending := q.PeekAll()
	for _, m := range pending {
		if m.ID == update.ID && m.UpdateSale.SaleID != "srv-42" {
			t.Errorf("queued update not rewritten: %s", m.UpdateSale.SaleID)
		}
		if m.ID == other.ID && m.UpdateSale.SaleID != "srv-99" {
			t.Errorf("unrelated update rewritten: %s", m.UpdateSale.SaleID)
		}
	}
}

func TestDropCreateForCancelsPendingCreate(t *testing.T) {
	q := New(newMemStore(), 5, 300)

	q.Enqueue(createSaleMutation("local-a"))
	q.Enqueue(createSaleMutation("local-b"))

	if !q.DropCreateFor("local-a") {
		t.Fatal("expected create for local-a to be dropped")
	}
	if q.DropCreateFor("local-a") {
		t.Error("second drop reported success")
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", q.Len())
	}
}

func TestEnqueueSurvivesPersistenceFailure(t *testing.T) {
	repo := newMemStore()
	repo.failAll = true
	q := New(repo, 5, 300)

	m, err := q.Enqueue(createSaleMutation("local-a"))
	if err != nil {
		t.Fatalf("Enqueue must not fail on storage errors: %v", err)
	}
	if m.ID == "" {
		t.Error("mutation id not assigned")
	}
	if q.Len() != 1 {
		t.Errorf("mutation not kept in memory, pending=%d", q.Len())
	}
}

func TestClearDropsEverything(t *testing.T) {
	q := New(newMemStore(), 1, 300)

	m, _ := q.Enqueue(createSaleMutation("local-a"))
	q.Enqueue(createSaleMutation("local-b"))
	q.MarkFailed(m.ID, errors.New("rejected"))

	q.Clear()
	if q.Len() != 0 || q.FailedCount() != 0 {
		t.Errorf("queue not empty after clear, pending=%d failed=%d", q.Len(), q.FailedCount())
	}
}
