package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/usecase/command"
	"github.com/tair/library-ledger/internal/library/usecase/query"
	"github.com/tair/library-ledger/pkg/auth"
	"github.com/tair/library-ledger/pkg/logger"
)

// LibraryHandler handles HTTP requests for the library ledger using CQRS
// command/query handlers.
type LibraryHandler struct {
	// Command handlers
	createBookHandler  *command.CreateBookHandler
	deleteBookHandler  *command.DeleteBookHandler
	adjustStockHandler *command.AdjustStockHandler
	requestHandler     *command.RequestBookHandler
	returnHandler      *command.ReturnBookHandler
	replenishHandler   *command.EvaluateReplenishmentHandler

	// Query handlers
	getBookHandler     *query.GetBookHandler
	listBooksHandler   *query.ListBooksHandler
	listTxnsHandler    *query.ListTransactionsHandler
	listPolicies       *query.ListPoliciesHandler
	stockReportHandler *query.GetStockReportHandler

	reportCache *ReportCache

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(
	createBookHandler *command.CreateBookHandler,
	deleteBookHandler *command.DeleteBookHandler,
	adjustStockHandler *command.AdjustStockHandler,
	requestHandler *command.RequestBookHandler,
	returnHandler *command.ReturnBookHandler,
	replenishHandler *command.EvaluateReplenishmentHandler,
	getBookHandler *query.GetBookHandler,
	listBooksHandler *query.ListBooksHandler,
	listTxnsHandler *query.ListTransactionsHandler,
	listPolicies *query.ListPoliciesHandler,
	stockReportHandler *query.GetStockReportHandler,
	reportCache *ReportCache,
) *LibraryHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_service_requests_total",
			Help: "Total number of requests to the library service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_service_request_duration_seconds",
			Help:    "Duration of library service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &LibraryHandler{
		createBookHandler:  createBookHandler,
		deleteBookHandler:  deleteBookHandler,
		adjustStockHandler: adjustStockHandler,
		requestHandler:     requestHandler,
		returnHandler:      returnHandler,
		replenishHandler:   replenishHandler,
		getBookHandler:     getBookHandler,
		listBooksHandler:   listBooksHandler,
		listTxnsHandler:    listTxnsHandler,
		listPolicies:       listPolicies,
		stockReportHandler: stockReportHandler,
		reportCache:        reportCache,
		requestCounter:     requestCounter,
		requestLatency:     requestLatency,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateBook handles POST /api/books
func (h *LibraryHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string          `json:"title"`
		Author         string          `json:"author"`
		Description    string          `json:"description"`
		ISBN           string          `json:"isbn"`
		TotalCount     int64           `json:"total_count"`
		AvailableCount int64           `json:"available_count"`
		Price          decimal.Decimal `json:"price"`
		MinStockLevel  int64           `json:"min_stock_level"`
		MaxStockLevel  int64           `json:"max_stock_level"`
		AutoReplenish  *bool           `json:"auto_replenish"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	book, err := h.createBookHandler.Handle(r.Context(), command.CreateBookCommand{
		Title:          req.Title,
		Author:         req.Author,
		Description:    req.Description,
		ISBN:           req.ISBN,
		TotalCount:     req.TotalCount,
		AvailableCount: req.AvailableCount,
		Price:          req.Price,
		MinStockLevel:  req.MinStockLevel,
		MaxStockLevel:  req.MaxStockLevel,
		AutoReplenish:  req.AutoReplenish,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create book")
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Book created successfully",
		Data:    book,
	})
}

// GetBook handles GET /api/books/{id}
func (h *LibraryHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.getBookHandler.Handle(r.Context(), query.GetBookQuery{BookID: id})
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: book})
}

// ListBooks handles GET /api/books and GET /api/books/available
func (h *LibraryHandler) ListBooks(availableOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		books, err := h.listBooksHandler.Handle(r.Context(), query.ListBooksQuery{
			Limit:         limit,
			Offset:        offset,
			AvailableOnly: availableOnly,
		})
		if err != nil {
			logger.Error(r.Context()).Err(err).Msg("Failed to list books")
			respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to list books"})
			return
		}

		respondJSON(w, http.StatusOK, Response{Success: true, Data: books})
	}
}

// DeleteBook handles DELETE /api/books/{id}
func (h *LibraryHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.deleteBookHandler.Handle(r.Context(), command.DeleteBookCommand{BookID: id}); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Book deleted successfully"})
}

// AdjustStock handles PATCH /api/books/{id}/stock
func (h *LibraryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		TotalCount     *int64 `json:"total_count"`
		AvailableCount *int64 `json:"available_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	book, err := h.adjustStockHandler.Handle(r.Context(), command.AdjustStockCommand{
		BookID:         id,
		TotalCount:     req.TotalCount,
		AvailableCount: req.AvailableCount,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Stock updated successfully", Data: book})
}

// RequestBook handles POST /api/transactions/request
func (h *LibraryHandler) RequestBook(w http.ResponseWriter, r *http.Request) {
	actorID, ok := r.Context().Value(ActorIDKey).(string)
	if !ok || actorID == "" {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Missing actor identity"})
		return
	}

	var req struct {
		BookID   uint   `json:"book_id"`
		Kind     string `json:"kind"`
		Quantity int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	txn, err := h.requestHandler.Handle(r.Context(), command.RequestBookCommand{
		ActorID:  actorID,
		BookID:   req.BookID,
		Kind:     domain.TransactionKind(req.Kind),
		Quantity: req.Quantity,
	})
	if err != nil {
		// A partial fulfilment still carries the committed transaction.
		if errors.Is(err, domain.ErrPartialFulfilment) {
			respondJSON(w, http.StatusConflict, Response{Success: false, Error: err.Error(), Data: txn})
			return
		}
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{Success: true, Data: txn})
}

// ReturnBook handles POST /api/transactions/{id}/return
func (h *LibraryHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
			return
		}
	}

	txn, err := h.returnHandler.Handle(r.Context(), command.ReturnBookCommand{
		TransactionID: id,
		Quantity:      req.Quantity,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Book returned", Data: txn})
}

// ListTransactions handles GET /api/transactions. Admins see everything,
// everyone else their own history.
func (h *LibraryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	actorID, _ := r.Context().Value(ActorIDKey).(string)
	role, _ := r.Context().Value(RoleKey).(string)
	if role == auth.RoleAdmin {
		actorID = ""
	}

	txns, err := h.listTxnsHandler.Handle(r.Context(), query.ListTransactionsQuery{
		ActorID: actorID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list transactions")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to list transactions"})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: txns})
}

// ListPolicies handles GET /api/inventory
func (h *LibraryHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	policies, err := h.listPolicies.Handle(r.Context(), query.ListPoliciesQuery{Limit: limit, Offset: offset})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list inventory policies")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to list inventory policies"})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: policies})
}

// Replenish handles POST /api/inventory/{book_id}/replenish
func (h *LibraryHandler) Replenish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "book_id")
	if !ok {
		return
	}

	if err := h.replenishHandler.Handle(r.Context(), command.EvaluateReplenishmentCommand{BookID: id}); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Replenishment evaluated"})
}

// StockReport handles GET /api/reports/stock
func (h *LibraryHandler) StockReport(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "reports:stock"

	if cached, ok := h.reportCache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	report, err := h.stockReportHandler.Handle(r.Context(), query.GetStockReportQuery{Limit: limit, Offset: offset})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to build stock report")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to build stock report"})
		return
	}

	body, err := json.Marshal(Response{Success: true, Data: report})
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to encode stock report"})
		return
	}

	h.reportCache.Set(r.Context(), cacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// RegisterRoutes registers all library routes
func (h *LibraryHandler) RegisterRoutes(router *mux.Router) {
	librarian := RoleMiddleware(auth.RoleAdmin, auth.RoleLibrarian)
	storekeeper := RoleMiddleware(auth.RoleAdmin, auth.RoleStorekeeper)

	router.HandleFunc("/api/books", h.metricsMiddleware("/api/books", AuthMiddleware(h.ListBooks(false)))).Methods("GET")
	router.HandleFunc("/api/books", h.metricsMiddleware("/api/books", librarian(h.CreateBook))).Methods("POST")
	router.HandleFunc("/api/books/available", h.metricsMiddleware("/api/books/available", AuthMiddleware(h.ListBooks(true)))).Methods("GET")
	router.HandleFunc("/api/books/{id}", h.metricsMiddleware("/api/books/{id}", AuthMiddleware(h.GetBook))).Methods("GET")
	router.HandleFunc("/api/books/{id}", h.metricsMiddleware("/api/books/{id}", librarian(h.DeleteBook))).Methods("DELETE")
	router.HandleFunc("/api/books/{id}/stock", h.metricsMiddleware("/api/books/{id}/stock", storekeeper(h.AdjustStock))).Methods("PATCH")

	router.HandleFunc("/api/transactions/request", h.metricsMiddleware("/api/transactions/request", AuthMiddleware(h.RequestBook))).Methods("POST")
	router.HandleFunc("/api/transactions/{id}/return", h.metricsMiddleware("/api/transactions/{id}/return", AuthMiddleware(h.ReturnBook))).Methods("POST")
	router.HandleFunc("/api/transactions", h.metricsMiddleware("/api/transactions", AuthMiddleware(h.ListTransactions))).Methods("GET")

	router.HandleFunc("/api/inventory", h.metricsMiddleware("/api/inventory", storekeeper(h.ListPolicies))).Methods("GET")
	router.HandleFunc("/api/inventory/{book_id}/replenish", h.metricsMiddleware("/api/inventory/{book_id}/replenish", storekeeper(h.Replenish))).Methods("POST")

	router.HandleFunc("/api/reports/stock", h.metricsMiddleware("/api/reports/stock", storekeeper(h.StockReport))).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *LibraryHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Database unavailable"})
			return
		}

		respondJSON(w, http.StatusOK, Response{Success: true, Message: "Library service is healthy"})
	}).Methods("GET")
}

// respondError maps domain errors to HTTP statuses.
func (h *LibraryHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBookNotFound), errors.Is(err, domain.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrNotReturnable):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy),
		errors.Is(err, domain.ErrInsufficientReserve),
		errors.Is(err, domain.ErrPartialFulfilment):
		status = http.StatusConflict
	}
	respondJSON(w, status, Response{Success: false, Error: err.Error()})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars[name], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *LibraryHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
