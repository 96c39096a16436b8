package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardwatch/cardwatch/internal/api/auth"
	"github.com/cardwatch/cardwatch/internal/api/middleware"
	"github.com/cardwatch/cardwatch/internal/domain"
	"github.com/cardwatch/cardwatch/internal/importer"
	"github.com/cardwatch/cardwatch/internal/points"
)

const maxUploadBytes = 10 << 20

// UserStore resolves accounts for login.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TransactionStore is the persistence surface the transaction endpoints need.
type TransactionStore interface {
	points.Lookup
	ExistsByNaturalKey(ctx context.Context, userID uuid.UUID, key domain.NaturalKey) (bool, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.Transaction, error)
	Summary(ctx context.Context, userID uuid.UUID) (totalSpent, totalPoints decimal.Decimal, err error)
}

// MultiplierStore lists the reward rules.
type MultiplierStore interface {
	ListMultipliers(ctx context.Context) ([]*domain.Multiplier, error)
}

// CSVImporter ingests an already-normalized CSV batch.
type CSVImporter interface {
	ImportCSV(ctx context.Context, content string, userID uuid.UUID) (importer.Result, error)
}

// AuthHandler handles login and identity endpoints.
type AuthHandler struct {
	users  UserStore
	issuer *auth.TokenIssuer
	log    zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users UserStore, issuer *auth.TokenIssuer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer, log: log}
}

// Token handles POST /token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			h.log.Error().Err(err).Msg("Failed to look up user for login")
			middleware.WriteError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		middleware.WriteError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil || !user.IsActive {
		middleware.WriteError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := h.issuer.Issue(user.Username)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"is_active": user.IsActive,
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

type transactionResponse struct {
	ID              uuid.UUID `json:"id"`
	TransactionDate string    `json:"transaction_date"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	Category        string    `json:"category,omitempty"`
	Card            string    `json:"card"`
	Points          *string   `json:"points"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              tx.ID,
		TransactionDate: tx.TransactionDate.Format("2006-01-02"),
		Description:     tx.Description,
		Amount:          tx.Amount.StringFixed(2),
		Category:        tx.Category,
		Card:            tx.Card,
		CreatedAt:       tx.CreatedAt,
	}
	if tx.Points.Valid {
		p := tx.Points.Decimal.StringFixed(2)
		resp.Points = &p
	}
	return resp
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	skip, limit := 0, 100
	query := r.URL.Query()
	if s := query.Get("skip"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			skip = v
		}
	}
	if s := query.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	txs, err := h.store.ListTransactions(r.Context(), user.ID, skip, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		TransactionDate string `json:"transaction_date"`
		Description     string `json:"description"`
		Amount          string `json:"amount"`
		Category        string `json:"category"`
		Card            string `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "transaction_date must be YYYY-MM-DD")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	if req.Description == "" || req.Card == "" {
		middleware.WriteError(w, http.StatusBadRequest, "description and card are required")
		return
	}

	tx := &domain.Transaction{
		ID:              uuid.New(),
		UserID:          user.ID,
		TransactionDate: date,
		Description:     req.Description,
		Amount:          amount,
		Category:        req.Category,
		Card:            req.Card,
		CreatedAt:       time.Now(),
	}

	if err := points.Apply(r.Context(), tx, h.store); err != nil {
		h.log.Error().Err(err).Msg("Failed to compute points")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	exists, err := h.store.ExistsByNaturalKey(r.Context(), user.ID, tx.Key())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check for duplicate")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}
	if exists {
		middleware.WriteError(w, http.StatusConflict, "Transaction already exists")
		return
	}

	if err := h.store.InsertTransaction(r.Context(), tx); err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			middleware.WriteError(w, http.StatusConflict, "Transaction already exists")
			return
		}
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// Summary handles GET /api/transactions/summary
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	spent, pts, err := h.store.Summary(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"total_spent":  spent.StringFixed(2),
		"total_points": pts.StringFixed(2),
	})
}

// MultipliersHandler handles multiplier-related endpoints.
type MultipliersHandler struct {
	store MultiplierStore
	log   zerolog.Logger
}

// NewMultipliersHandler creates a new multipliers handler.
func NewMultipliersHandler(store MultiplierStore, log zerolog.Logger) *MultipliersHandler {
	return &MultipliersHandler{store: store, log: log}
}

// ListMultipliers handles GET /api/multipliers
func (h *MultipliersHandler) ListMultipliers(w http.ResponseWriter, r *http.Request) {
	ms, err := h.store.ListMultipliers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list multipliers")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list multipliers")
		return
	}

	type multiplierResponse struct {
		ID         uuid.UUID `json:"id"`
		Category   string    `json:"category"`
		Card       string    `json:"card"`
		Multiplier int64     `json:"multiplier"`
	}
	resp := make([]multiplierResponse, 0, len(ms))
	for _, m := range ms {
		resp = append(resp, multiplierResponse{ID: m.ID, Category: m.Category, Card: m.Card, Multiplier: m.Multiplier})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"multipliers": resp,
		"count":       len(resp),
	})
}

// UploadHandler handles normalized-CSV upload endpoints.
type UploadHandler struct {
	importer CSVImporter
	log      zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(imp CSVImporter, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{importer: imp, log: log}
}

// Upload handles POST /api/upload. The body is a multipart form whose "file"
// part holds a CSV already in the canonical schema; rows are deduplicated and
// imported atomically under the authenticated account.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		middleware.WriteError(w, http.StatusBadRequest, "only .csv uploads are accepted")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	result, err := h.importer.ImportCSV(r.Context(), string(content), user.ID)
	if err != nil {
		h.log.Warn().Err(err).Str("filename", header.Filename).Msg("Upload rejected")
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.log.Info().
		Str("filename", header.Filename).
		Int("added", result.Added).
		Int("skipped", result.Skipped).
		Msg("Upload imported")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"filename": header.Filename,
		"added":    result.Added,
		"skipped":  result.Skipped,
	})
}
