package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hotshotfinger/geprekpos/backend/cmd/desktop/handlers"
	"github.com/hotshotfinger/geprekpos/backend/internal/autopost"
	"github.com/hotshotfinger/geprekpos/backend/internal/config"
	"github.com/hotshotfinger/geprekpos/backend/internal/db"
	"github.com/hotshotfinger/geprekpos/backend/internal/export"
	"github.com/hotshotfinger/geprekpos/backend/internal/gateway"
	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/connectivity"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/queue"
)

func main() {
	cfg := config.Load()
	logging.Init(os.Stdout, cfg.LogLevel)
	log := logging.WithComponent("main")

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	repo := db.NewRepository(database.DB)
	defer repo.Close()

	st := store.New(repo)
	if err := st.Load(); err != nil {
		log.WithError(err).Fatal("failed to load local state")
	}

	q := queue.New(repo, cfg.MaxAttempts, cfg.QueueWarnDepth)
	if err := q.Load(); err != nil {
		log.WithError(err).Fatal("failed to load mutation queue")
	}

	gw := gateway.New(cfg.GatewayURL, cfg.GatewayToken, cfg.RequestTimeout)
	processor := syncpkg.NewProcessor(q, gw, st, cfg.RequestTimeout)
	monitor := connectivity.New(gw, processor, cfg.ProbeInterval)
	recorder := syncpkg.NewRecorder(st, q, gw, monitor, cfg.RequestTimeout)
	backup := export.NewService(st)
	autoposter := autopost.NewService(st, gw)

	hub := NewWSHub()
	processor.SetEvents(hub)
	monitor.SetOnChange(func(online bool) {
		hub.BroadcastConnectivity(online)
		if online {
			refreshCatalog(context.Background(), gw, st)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx)

	mux := http.NewServeMux()

	salesHandler := handlers.NewSalesHandler(st, recorder)
	stockHandler := handlers.NewStockHandler(st, recorder)
	notesHandler := handlers.NewNotesHandler(st, recorder, backup)
	autopostHandler := handlers.NewAutoPostHandler(autoposter)
	syncHandler := handlers.NewSyncHandler(q, processor, monitor)

	mux.HandleFunc("/api/sales", method(map[string]http.HandlerFunc{
		http.MethodGet:  salesHandler.List,
		http.MethodPost: salesHandler.Create,
	}))
	mux.HandleFunc("/api/sales/", method(map[string]http.HandlerFunc{
		http.MethodPatch:  salesHandler.Update,
		http.MethodDelete: salesHandler.Delete,
	}))
	mux.HandleFunc("/api/products", method(map[string]http.HandlerFunc{
		http.MethodGet: salesHandler.Products,
	}))

	mux.HandleFunc("/api/stock", method(map[string]http.HandlerFunc{
		http.MethodGet: stockHandler.Get,
		http.MethodPut: stockHandler.Update,
	}))
	mux.HandleFunc("/api/stock/fry", method(map[string]http.HandlerFunc{
		http.MethodPost: stockHandler.Fry,
	}))
	mux.HandleFunc("/api/stock/complete-frying", method(map[string]http.HandlerFunc{
		http.MethodPost: stockHandler.CompleteFrying,
	}))

	mux.HandleFunc("/api/notes/financial", method(map[string]http.HandlerFunc{
		http.MethodGet:  notesHandler.ListFinancial,
		http.MethodPost: notesHandler.CreateFinancial,
	}))
	mux.HandleFunc("/api/notes/financial/", method(map[string]http.HandlerFunc{
		http.MethodDelete: notesHandler.DeleteFinancial,
	}))
	mux.HandleFunc("/api/notes/general", method(map[string]http.HandlerFunc{
		http.MethodGet:  notesHandler.ListGeneral,
		http.MethodPost: notesHandler.CreateGeneral,
	}))
	mux.HandleFunc("/api/notes/general/", method(map[string]http.HandlerFunc{
		http.MethodDelete: notesHandler.DeleteGeneral,
	}))
	mux.HandleFunc("/api/notes/calculate", method(map[string]http.HandlerFunc{
		http.MethodPost: notesHandler.Evaluate,
	}))
	mux.HandleFunc("/api/notes/categories", method(map[string]http.HandlerFunc{
		http.MethodGet:  notesHandler.Categories,
		http.MethodPost: notesHandler.AddCategory,
	}))
	mux.HandleFunc("/api/notes/categories/", method(map[string]http.HandlerFunc{
		http.MethodDelete: notesHandler.DeleteCategory,
	}))
	mux.HandleFunc("/api/notes/export", method(map[string]http.HandlerFunc{
		http.MethodPost: notesHandler.Export,
	}))
	mux.HandleFunc("/api/notes/import", method(map[string]http.HandlerFunc{
		http.MethodPost: notesHandler.Import,
	}))

	mux.HandleFunc("/api/autopost", method(map[string]http.HandlerFunc{
		http.MethodGet: autopostHandler.Get,
		http.MethodPut: autopostHandler.SetConfig,
	}))
	mux.HandleFunc("/api/autopost/start", method(map[string]http.HandlerFunc{
		http.MethodPost: autopostHandler.Start,
	}))
	mux.HandleFunc("/api/autopost/stop", method(map[string]http.HandlerFunc{
		http.MethodPost: autopostHandler.Stop,
	}))

	mux.HandleFunc("/api/sync/status", method(map[string]http.HandlerFunc{
		http.MethodGet: syncHandler.Status,
	}))
	mux.HandleFunc("/api/sync/trigger", method(map[string]http.HandlerFunc{
		http.MethodPost: syncHandler.Trigger,
	}))
	mux.HandleFunc("/api/sync/retry-failed", method(map[string]http.HandlerFunc{
		http.MethodPost: syncHandler.RetryFailed,
	}))
	mux.HandleFunc("/api/sync/clear", method(map[string]http.HandlerFunc{
		http.MethodPost: syncHandler.Clear,
	}))

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"geprekpos-desktop"}`))
	})
	mux.HandleFunc("/ws", HandleWebSocket(hub))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

// method dispatches by HTTP method, answering 405 for anything unmapped.
func method(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method]; ok {
			handler(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// refreshCatalog pulls the confirmed product catalog when connectivity
// returns, so prices and the UseChicken flags track the remote truth.
func refreshCatalog(ctx context.Context, gw *gateway.Client, st *store.Store) {
	log := logging.WithComponent("main")

	listCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var products []*models.Product
	if err := gw.List(listCtx, gateway.TableProducts, nil, &products); err != nil {
		log.WithError(err).Warn("failed to refresh product catalog")
		return
	}
	if len(products) > 0 {
		st.SetProducts(products)
	}
}
