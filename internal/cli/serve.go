package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

const (
	defaultServeAddr    = ":8080"
	serveReadTimeout    = 10 * time.Second
	serveWriteTimeout   = 5 * time.Minute // batch generation happens inside the request
	shutdownGracePeriod = 10 * time.Second

	// maxAPIBatchTotal caps per-request batch sizes so a single call
	// cannot tie up the server indefinitely.
	maxAPIBatchTotal = 100_000
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string // listen address
	config    string // path to a TOML event config
	event     string // event name for registry scoping
	registry  string // registry backend: memory, redis
	redisAddr string // redis address for the redis backend
}

// newServeCmd creates the serve command: a small HTTP API that
// generates batches on demand and serves previously generated ones.
func newServeCmd(c *CLI) *cobra.Command {
	opts := serveOpts{addr: defaultServeAddr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP API for batch generation",
		Long: `Serve starts an HTTP API. POST /api/batches generates a batch of
unique cards; generated batches stay available for lookup until the
process exits. All batches share the configured registry, so with the
redis backend every batch is unique across the whole event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := DefaultConfig()
			if opts.config != "" {
				loaded, err := LoadConfig(opts.config)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			f := cmd.Flags()
			if f.Changed("event") {
				cfg.Event = opts.event
			}
			if f.Changed("registry") {
				cfg.Registry.Backend = opts.registry
			}
			if f.Changed("redis-addr") {
				cfg.Registry.Addr = opts.redisAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), &cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", opts.addr, "listen address")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML event config file")
	cmd.Flags().StringVar(&opts.event, "event", "", "event name for cross-batch uniqueness")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "registry backend: memory (default), redis")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address for the redis backend")

	return cmd
}

func (c *CLI) serveCommand() *cobra.Command { return newServeCmd(c) }

func (c *CLI) runServe(ctx context.Context, cfg *EventConfig, opts *serveOpts) error {
	logger := loggerFromContext(ctx)
	api := newAPIServer(c, cfg)

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           api.routes(),
		ReadHeaderTimeout: serveReadTimeout,
		WriteTimeout:      serveWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "event", cfg.Event)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// API Server
// =============================================================================

// apiServer holds the HTTP handlers and the in-process batch store.
type apiServer struct {
	cli   *CLI
	cfg   EventConfig
	store *batchStore
}

func newAPIServer(c *CLI, cfg *EventConfig) *apiServer {
	return &apiServer{cli: c, cfg: *cfg, store: newBatchStore()}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/batches", func(r chi.Router) {
		r.Post("/", s.handleCreateBatch)
		r.Get("/", s.handleListBatches)
		r.Route("/{batchID}", func(r chi.Router) {
			r.Get("/", s.handleGetBatch)
			r.Get("/cards/{index}", s.handleGetCard)
		})
	})
	return r
}

// logRequests logs each request through the CLI's structured logger.
func (s *apiServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.cli.Logger.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createBatchRequest is the POST /api/batches body. Zero values fall
// back to the server's event config.
type createBatchRequest struct {
	Total   int    `json:"total"`
	Round   int    `json:"round"`
	Workers int    `json:"workers"`
	Seed    uint64 `json:"seed"`
	Strip   bool   `json:"strip"`
}

func (s *apiServer) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decoding request body"))
		return
	}

	cfg := s.cfg
	if req.Total != 0 {
		cfg.Total = req.Total
	}
	if req.Round != 0 {
		cfg.Round = req.Round
	}
	if req.Workers != 0 {
		cfg.Workers = req.Workers
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if cfg.Total > maxAPIBatchTotal {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput,
			"total %d exceeds the API limit of %d", cfg.Total, maxAPIBatchTotal))
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.cli.newSession(r.Context(), &cfg, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	defer sess.Close()

	cards, err := sess.Prepare(r.Context(), cfg.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	if !session.ValidateUnique(cards) {
		writeError(w, apperrors.New(apperrors.ErrCodeInternal, "duplicate cards in accepted batch"))
		return
	}

	batch := newBatch(&cfg, sess, cards, req.Strip)
	s.store.put(batch, cards)
	writeJSON(w, http.StatusCreated, batch)
}

// batchSummary is the list-endpoint view of a stored batch.
type batchSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Round     int       `json:"round"`
	CreatedAt time.Time `json:"created_at"`
	Total     int       `json:"total"`
}

func (s *apiServer) handleListBatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.list())
}

func (s *apiServer) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	batch, _, ok := s.store.get(id)
	if !ok {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *apiServer) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	_, cards, ok := s.store.get(id)
	if !ok {
		writeNotFound(w, id)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parsing card index"))
		return
	}
	if index < 0 || index >= len(cards) {
		writeError(w, apperrors.New(apperrors.ErrCodeIndexOutOfRange,
			"card index %d outside [0, %d)", index, len(cards)))
		return
	}
	writeJSON(w, http.StatusOK, cards[index])
}

// =============================================================================
// Batch Store
// =============================================================================

// batchStore keeps generated batches in memory for later lookup. Cards
// are kept flat regardless of strip grouping so the per-card endpoint
// can index into them directly.
type batchStore struct {
	mu      sync.RWMutex
	batches map[string]Batch
	cards   map[string][]card.Card
	order   []string
}

func newBatchStore() *batchStore {
	return &batchStore{
		batches: make(map[string]Batch),
		cards:   make(map[string][]card.Card),
	}
}

func (bs *batchStore) put(b Batch, cards []card.Card) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.batches[b.ID] = b
	bs.cards[b.ID] = cards
	bs.order = append(bs.order, b.ID)
}

func (bs *batchStore) get(id string) (Batch, []card.Card, bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	b, ok := bs.batches[id]
	return b, bs.cards[id], ok
}

func (bs *batchStore) list() []batchSummary {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	out := make([]batchSummary, 0, len(bs.order))
	for _, id := range bs.order {
		b := bs.batches[id]
		out = append(out, batchSummary{
			ID: b.ID, Title: b.Title, Round: b.Round,
			CreatedAt: b.CreatedAt, Total: b.Total,
		})
	}
	return out
}

// =============================================================================
// JSON Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON shape of API errors.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Code:    "NOT_FOUND",
		Message: "unknown batch " + id,
	})
}

// writeError maps application error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case apperrors.ErrCodeIndexOutOfRange:
		status = http.StatusNotFound
	case apperrors.ErrCodeExhaustedSpace:
		status = http.StatusConflict
	case apperrors.ErrCodeRegistry:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: apperrors.UserMessage(err)})
}
