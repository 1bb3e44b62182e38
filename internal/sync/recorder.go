package sync

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
	"github.com/hotshotfinger/geprekpos/backend/internal/gateway"
	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/notes"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/queue"
	"github.com/hotshotfinger/geprekpos/backend/internal/telemetry"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// Connectivity is the slice of the monitor the recorder consults before
// choosing between direct dispatch and the queue.
type Connectivity interface {
	IsOnline() bool
	MarkOffline()
}

// Recorder is the write entry point. Every mutation is applied to the
// optimistic store first, so the caller sees the result immediately, then
// either dispatched directly or parked in the durable queue.
//
// A mutation is queued whenever the monitor reports offline OR the queue is
// non-empty. The second condition keeps order: sending a fresh mutation
// around a backlog would let it overtake earlier ones it may depend on.
type Recorder struct {
	store   *store.Store
	queue   *queue.DurableQueue
	gw      Dispatcher
	conn    Connectivity
	timeout time.Duration
	log     *logrus.Entry
}

// NewRecorder creates a Recorder.
func NewRecorder(st *store.Store, q *queue.DurableQueue, gw Dispatcher, conn Connectivity, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{
		store:   st,
		queue:   q,
		gw:      gw,
		conn:    conn,
		timeout: timeout,
		log:     logging.WithComponent("recorder"),
	}
}

// RecordSale applies a sale optimistically and schedules its replay. When
// the product consumes cooked chicken the matching stock decrement rides
// along as a second mutation, right behind the sale.
func (r *Recorder) RecordSale(ctx context.Context, productID string, quantity int64) (models.Sale, error) {
	if quantity <= 0 {
		return models.Sale{}, apperrors.New(apperrors.ErrValidation, "quantity must be positive")
	}
	product, ok := r.store.FindProduct(productID)
	if !ok {
		return models.Sale{}, apperrors.New(apperrors.ErrProductNotFound, "unknown product "+productID)
	}

	sale := r.store.ApplyCreateSale(product.ObjectID, product.Name, product.Price, quantity)

	err := r.submit(ctx, &models.Mutation{
		Kind: models.KindCreateSale,
		CreateSale: &models.CreateSalePayload{
			LocalID:     sale.LocalID,
			ProductID:   sale.ProductID,
			ProductName: sale.ProductName,
			Price:       sale.Price,
			Quantity:    sale.Quantity,
			Date:        sale.Date,
		},
	})
	if err != nil {
		return sale, err
	}

	if product.UseChicken {
		fields := r.store.ConsumeCooked(quantity)
		if err := r.submit(ctx, &models.Mutation{
			Kind:        models.KindUpdateStock,
			UpdateStock: &models.UpdateStockPayload{Fields: fields},
		}); err != nil {
			return sale, err
		}
	}
	return sale, nil
}

// RecordSaleUpdate applies a partial edit to an existing sale. Updates
// targeting a placeholder id always queue: the entity has no server
// identity until its create confirms, and the queued create must land
// first.
func (r *Recorder) RecordSaleUpdate(ctx context.Context, saleID string, fields models.SaleFields) error {
	if !r.store.ApplyUpdateSale(saleID, fields) {
		return apperrors.New(apperrors.ErrSaleNotFound, "unknown sale "+saleID)
	}
	m := &models.Mutation{
		Kind:       models.KindUpdateSale,
		UpdateSale: &models.UpdateSalePayload{SaleID: saleID, Fields: fields},
	}
	if uuid.IsLocal(saleID) {
		_, err := r.queue.Enqueue(m)
		return err
	}
	return r.submit(ctx, m)
}

// RecordSaleDelete removes a sale. For an unconfirmed sale the delete
// cancels the queued create locally and nothing reaches the gateway.
func (r *Recorder) RecordSaleDelete(ctx context.Context, saleID string) error {
	if !r.store.RemoveSale(saleID) {
		return apperrors.New(apperrors.ErrSaleNotFound, "unknown sale "+saleID)
	}
	if uuid.IsLocal(saleID) {
		r.queue.DropCreateFor(saleID)
		return nil
	}
	return r.submit(ctx, &models.Mutation{
		Kind:         models.KindDeleteEntity,
		DeleteEntity: &models.DeleteEntityPayload{Table: gateway.TableSales, ObjectID: saleID},
	})
}

// RecordStockSet applies absolute stock values, for manual corrections.
func (r *Recorder) RecordStockSet(ctx context.Context, fields models.StockFields) (models.Stock, error) {
	stock := r.store.ApplyStock(fields)
	err := r.submit(ctx, &models.Mutation{
		Kind:        models.KindUpdateStock,
		UpdateStock: &models.UpdateStockPayload{Fields: fields},
	})
	return stock, err
}

// RecordTransferToFrying moves n raw chickens into the frying stage. The
// two counters travel in one mutation so replay never applies half a move.
func (r *Recorder) RecordTransferToFrying(ctx context.Context, n int64) (models.Stock, error) {
	if n <= 0 {
		return r.store.Stock(), apperrors.New(apperrors.ErrValidation, "transfer count must be positive")
	}
	fields, ok := r.store.TransferRawToFrying(n)
	if !ok {
		return r.store.Stock(), apperrors.New(apperrors.ErrStockInsufficient, "not enough raw chicken")
	}
	err := r.submit(ctx, &models.Mutation{
		Kind:        models.KindUpdateStock,
		UpdateStock: &models.UpdateStockPayload{Fields: fields},
	})
	return r.store.Stock(), err
}

// RecordCompleteFrying moves the whole frying batch into cooked stock.
func (r *Recorder) RecordCompleteFrying(ctx context.Context) (models.Stock, error) {
	fields, ok := r.store.CompleteFrying()
	if !ok {
		return r.store.Stock(), apperrors.New(apperrors.ErrStockInsufficient, "nothing in the frying stage")
	}
	err := r.submit(ctx, &models.Mutation{
		Kind:        models.KindUpdateStock,
		UpdateStock: &models.UpdateStockPayload{Fields: fields},
	})
	return r.store.Stock(), err
}

// RecordFinancialNote evaluates the calculator expression and records the
// note with the derived result. The stored result is always the evaluation
// of the stored expression.
func (r *Recorder) RecordFinancialNote(ctx context.Context, expression, category, subCategory, description string) (models.FinancialNote, error) {
	if !notes.ValidCategory(category) {
		return models.FinancialNote{}, apperrors.New(apperrors.ErrValidation, "unknown category "+category)
	}
	result, err := notes.Evaluate(expression)
	if err != nil {
		return models.FinancialNote{}, err
	}

	note := r.store.ApplyCreateFinancialNote(expression, result, category, subCategory, description)

	err = r.submit(ctx, &models.Mutation{
		Kind: models.KindCreateFinancialNote,
		CreateFinancialNote: &models.CreateFinancialNotePayload{
			LocalID:     note.LocalID,
			Expression:  note.Expression,
			Result:      note.Result,
			Category:    note.Category,
			SubCategory: note.SubCategory,
			Description: note.Description,
			Timestamp:   note.Timestamp,
		},
	})
	return note, err
}

// RecordFinancialNoteDelete removes a financial note.
func (r *Recorder) RecordFinancialNoteDelete(ctx context.Context, id string) error {
	if !r.store.RemoveFinancialNote(id) {
		return apperrors.New(apperrors.ErrNoteNotFound, "unknown financial note "+id)
	}
	if uuid.IsLocal(id) {
		r.queue.DropCreateFor(id)
		return nil
	}
	return r.submit(ctx, &models.Mutation{
		Kind:         models.KindDeleteEntity,
		DeleteEntity: &models.DeleteEntityPayload{Table: gateway.TableFinancialNotes, ObjectID: id},
	})
}

// RecordGeneralNote records a free-form note.
func (r *Recorder) RecordGeneralNote(ctx context.Context, title, content string) (models.GeneralNote, error) {
	note := r.store.ApplyCreateGeneralNote(title, content)
	err := r.submit(ctx, &models.Mutation{
		Kind: models.KindCreateGeneralNote,
		CreateGeneralNote: &models.CreateGeneralNotePayload{
			LocalID:   note.LocalID,
			Title:     note.Title,
			Content:   note.Content,
			Timestamp: note.Timestamp,
		},
	})
	return note, err
}

// RecordGeneralNoteDelete removes a general note.
func (r *Recorder) RecordGeneralNoteDelete(ctx context.Context, id string) error {
	if !r.store.RemoveGeneralNote(id) {
		return apperrors.New(apperrors.ErrNoteNotFound, "unknown general note "+id)
	}
	if uuid.IsLocal(id) {
		r.queue.DropCreateFor(id)
		return nil
	}
	return r.submit(ctx, &models.Mutation{
		Kind:         models.KindDeleteEntity,
		DeleteEntity: &models.DeleteEntityPayload{Table: gateway.TableGeneralNotes, ObjectID: id},
	})
}

// submit routes a mutation. Offline, or with a backlog already queued, it
// enqueues. Online with an empty queue it dispatches directly; a
// connectivity failure flips the monitor offline and enqueues the mutation
// so nothing is lost, while an explicit rejection goes back to the caller
// with the optimistic apply left in place.
func (r *Recorder) submit(ctx context.Context, m *models.Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if !r.conn.IsOnline() || r.queue.Len() > 0 {
		_, err := r.queue.Enqueue(m)
		return err
	}

	localID, objectID, err := Dispatch(ctx, r.gw, m, r.timeout)
	switch {
	case err == nil:
		telemetry.RecordDirectDispatch()
		if m.IsCreate() {
			r.reconcileDirect(m, localID, objectID)
		}
		return nil

	case gateway.IsUnreachable(err):
		r.log.WithFields(logrus.Fields{"kind": m.Kind}).
			Info("direct dispatch hit connectivity failure, queueing")
		r.conn.MarkOffline()
		_, qerr := r.queue.Enqueue(m)
		return qerr

	default:
		return apperrors.Wrap(apperrors.ErrGatewayRejected, "gateway rejected mutation", err)
	}
}

func (r *Recorder) reconcileDirect(m *models.Mutation, localID, objectID string) {
	if objectID == "" {
		return
	}
	switch m.Kind {
	case models.KindCreateSale:
		r.store.ReconcileSale(localID, objectID)
	case models.KindCreateFinancialNote:
		r.store.ReconcileFinancialNote(localID, objectID)
	case models.KindCreateGeneralNote:
		r.store.ReconcileGeneralNote(localID, objectID)
	}
}
