// Package sync replays queued mutations against the remote data gateway
// and routes new mutations between direct dispatch and the durable queue.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
	"github.com/hotshotfinger/geprekpos/backend/internal/gateway"
	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/queue"
	"github.com/hotshotfinger/geprekpos/backend/internal/telemetry"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// StockObjectID is the well-known id of the singleton stock record on the
// remote store.
const StockObjectID = "current"

// ErrDrainInProgress is returned when a drain is requested while one is
// already running. The request is ignored, not queued as a second pass.
var ErrDrainInProgress = apperrors.New(apperrors.ErrDrainInProgress, "a drain pass is already running")

// Dispatcher is the slice of the gateway client used for replay.
type Dispatcher interface {
	Create(ctx context.Context, table string, fields, out interface{}) error
	Update(ctx context.Context, table, objectID string, fields, out interface{}) error
	Delete(ctx context.Context, table, objectID string) error
}

// Reconciler is the slice of the optimistic store the processor needs to
// swap placeholder ids for confirmed ones.
type Reconciler interface {
	ReconcileSale(localID, objectID string) bool
	ReconcileFinancialNote(localID, objectID string) bool
	ReconcileGeneralNote(localID, objectID string) bool
}

// Events receives drain lifecycle notifications for the user-facing status
// surface. Implementations must not block.
type Events interface {
	DrainStarted(pending int)
	DrainFinished(result DrainResult)
}

// DrainState is the processor state machine: Idle → Draining → Idle.
type DrainState string

const (
	StateIdle     DrainState = "idle"
	StateDraining DrainState = "draining"
)

// DrainResult is the aggregate outcome of one drain pass.
type DrainResult struct {
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Rejected  int  `json:"rejected"`
	Remaining int  `json:"remaining"`
	Halted    bool `json:"halted"` // stopped early on a connectivity failure
}

// Processor drains the durable queue against the gateway, preserving
// enqueue order and never double-sending a dispatched mutation.
type Processor struct {
	mu    sync.Mutex
	state DrainState

	queue   *queue.DurableQueue
	gw      Dispatcher
	store   Reconciler
	timeout time.Duration
	events  Events
	log     *logrus.Entry
}

// NewProcessor creates a Processor. timeout bounds each mutation dispatch
// so one hung request cannot pin the Draining state forever.
func NewProcessor(q *queue.DurableQueue, gw Dispatcher, store Reconciler, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Processor{
		state:   StateIdle,
		queue:   q,
		gw:      gw,
		store:   store,
		timeout: timeout,
		log:     logging.WithComponent("processor"),
	}
}

// SetEvents registers the drain lifecycle sink.
func (p *Processor) SetEvents(events Events) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = events
}

// State returns the current drain state.
func (p *Processor) State() DrainState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Drain replays the queued mutations snapshotted at entry, in enqueue
// order. Mutations enqueued while the pass runs wait for the next pass.
//
// Per mutation: success removes it from the queue (creates additionally
// reconcile the placeholder id); a connectivity failure halts the pass with
// everything from this point still queued; a rejection is recorded and the
// pass continues, because the server did process the request and unrelated
// mutations deserve their turn.
func (p *Processor) Drain(ctx context.Context) (*DrainResult, error) {
	p.mu.Lock()
	if p.state == StateDraining {
		p.mu.Unlock()
		return nil, ErrDrainInProgress
	}
	p.state = StateDraining
	events := p.events
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
	}()

	snapshot := p.queue.PeekAll()
	result := &DrainResult{}

	if len(snapshot) == 0 {
		result.Remaining = 0
		return result, nil
	}

	if events != nil {
		events.DrainStarted(len(snapshot))
	}
	p.log.WithFields(logrus.Fields{"pending": len(snapshot)}).Info("drain pass started")

	start := time.Now()
	defer func() {
		telemetry.RecordDrain(result.Succeeded, result.Rejected, result.Halted, time.Since(start))
	}()

	for _, m := range snapshot {
		select {
		case <-ctx.Done():
			result.Halted = true
			result.Remaining = p.queue.Len()
			if events != nil {
				events.DrainFinished(*result)
			}
			return result, ctx.Err()
		default:
		}

		result.Attempted++
		localID, objectID, err := Dispatch(ctx, p.gw, m, p.timeout)

		switch {
		case err == nil:
			p.queue.Dequeue(m.ID)
			if m.IsCreate() {
				p.reconcile(m, localID, objectID)
			}
			result.Succeeded++

		case gateway.IsUnreachable(err):
			// Nothing reached the server; stop here so order holds.
			p.log.WithFields(logrus.Fields{"mutation_id": m.ID}).
				Info("connectivity failure, halting drain pass")
			result.Halted = true
			result.Remaining = p.queue.Len()
			if events != nil {
				events.DrainFinished(*result)
			}
			return result, nil

		default:
			// The server processed and refused; record the attempt and move
			// on so unrelated mutations still get their chance.
			p.queue.MarkFailed(m.ID, err)
			result.Rejected++
			p.log.WithError(err).WithFields(logrus.Fields{
				"mutation_id": m.ID,
				"kind":        m.Kind,
			}).Warn("mutation rejected")
		}
	}

	result.Remaining = p.queue.Len()
	if events != nil {
		events.DrainFinished(*result)
	}
	p.log.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"rejected":  result.Rejected,
		"remaining": result.Remaining,
	}).Info("drain pass finished")
	return result, nil
}

// reconcile swaps the placeholder id for the confirmed one in the store
// and rewrites any queued updates still targeting the placeholder.
func (p *Processor) reconcile(m *models.Mutation, localID, objectID string) {
	if objectID == "" {
		p.log.WithFields(logrus.Fields{"mutation_id": m.ID}).
			Warn("create confirmed without an objectId, skipping reconcile")
		return
	}
	switch m.Kind {
	case models.KindCreateSale:
		p.store.ReconcileSale(localID, objectID)
		p.queue.RewritePlaceholder(localID, objectID)
	case models.KindCreateFinancialNote:
		p.store.ReconcileFinancialNote(localID, objectID)
	case models.KindCreateGeneralNote:
		p.store.ReconcileGeneralNote(localID, objectID)
	}
}

// confirmedEntity is the minimal decode of a gateway create response.
type confirmedEntity struct {
	ObjectID string `json:"objectId"`
}

// Dispatch sends one mutation to the gateway using the operation implied by
// its kind. For creates it returns the payload's placeholder id and the
// server-assigned objectId. Shared by the drain loop and direct sends.
func Dispatch(ctx context.Context, gw Dispatcher, m *models.Mutation, timeout time.Duration) (localID, objectID string, err error) {
	dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch m.Kind {
	case models.KindCreateSale:
		pl := m.CreateSale
		var confirmed confirmedEntity
		body := map[string]interface{}{
			"localId":     pl.LocalID,
			"productId":   pl.ProductID,
			"productName": pl.ProductName,
			"price":       pl.Price,
			"quantity":    pl.Quantity,
			"total":       pl.Price * pl.Quantity,
			"date":        pl.Date,
		}
		if err := gw.Create(dispatchCtx, gateway.TableSales, body, &confirmed); err != nil {
			return pl.LocalID, "", err
		}
		return pl.LocalID, confirmed.ObjectID, nil

	case models.KindUpdateSale:
		pl := m.UpdateSale
		if uuid.IsLocal(pl.SaleID) {
			// The create this update depends on never confirmed; there is
			// no server entity to address.
			return "", "", fmt.Errorf("update targets unconfirmed sale %s", pl.SaleID)
		}
		return "", "", gw.Update(dispatchCtx, gateway.TableSales, pl.SaleID, pl.Fields, nil)

	case models.KindUpdateStock:
		pl := m.UpdateStock
		return "", "", gw.Update(dispatchCtx, gateway.TableStock, StockObjectID, pl.Fields, nil)

	case models.KindCreateFinancialNote:
		pl := m.CreateFinancialNote
		var confirmed confirmedEntity
		body := map[string]interface{}{
			"localId":     pl.LocalID,
			"expression":  pl.Expression,
			"result":      pl.Result,
			"category":    pl.Category,
			"subCategory": pl.SubCategory,
			"description": pl.Description,
		}
		if err := gw.Create(dispatchCtx, gateway.TableFinancialNotes, body, &confirmed); err != nil {
			return pl.LocalID, "", err
		}
		return pl.LocalID, confirmed.ObjectID, nil

	case models.KindCreateGeneralNote:
		pl := m.CreateGeneralNote
		var confirmed confirmedEntity
		body := map[string]interface{}{
			"localId": pl.LocalID,
			"title":   pl.Title,
			"content": pl.Content,
		}
		if err := gw.Create(dispatchCtx, gateway.TableGeneralNotes, body, &confirmed); err != nil {
			return pl.LocalID, "", err
		}
		return pl.LocalID, confirmed.ObjectID, nil

	case models.KindDeleteEntity:
		pl := m.DeleteEntity
		return "", "", gw.Delete(dispatchCtx, pl.Table, pl.ObjectID)
	}

	return "", "", fmt.Errorf("unknown mutation kind %s", m.Kind)
}
