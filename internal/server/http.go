package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/zerolog"

	"VaultLedger/internal/ledger"
	"VaultLedger/internal/observability"
	"VaultLedger/internal/query"
	"VaultLedger/internal/registry"
	"VaultLedger/internal/vault"
)

// HTTPServer serves the JSON API for vault operations and queries, plus
// the health probe endpoints.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	service    *query.Service
	health     *observability.HealthChecker
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

func NewHTTPServer(
	addr string,
	service *query.Service,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		addr:    addr,
		service: service,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
}

// Start serves HTTP (blocking) until ctx is cancelled.
func (s *HTTPServer) Start(ctx context.Context) error {
	mux := runtime.NewServeMux()
	if err := s.registerRoutes(mux); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/healthz", s.health.LivenessHandler)
	httpMux.HandleFunc("/readyz", s.health.ReadinessHandler)
	httpMux.Handle("/", mux)

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: httpMux,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) registerRoutes(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/v1/vaults", s.handleListVaults},
		{http.MethodPost, "/v1/vaults", s.handleCreateVault},
		{http.MethodGet, "/v1/vaults/{asset}", s.handleGetVault},
		{http.MethodGet, "/v1/vaults/{asset}/preview/{op}", s.handlePreview},
		{http.MethodPost, "/v1/vaults/{asset}/deposit", s.handleDeposit},
		{http.MethodPost, "/v1/vaults/{asset}/mint", s.handleMint},
		{http.MethodPost, "/v1/vaults/{asset}/withdraw", s.handleWithdraw},
		{http.MethodPost, "/v1/vaults/{asset}/redeem", s.handleRedeem},
		{http.MethodPost, "/v1/ledgers/{denom}/approve", s.handleApprove},
		{http.MethodPost, "/v1/ledgers/{denom}/fund", s.handleFund},
		{http.MethodGet, "/v1/accounts/{account}/balances/{denom}", s.handleBalance},
	}

	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("route %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

// === handlers ===

func (s *HTTPServer) handleListVaults(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	s.observe("list_vaults", w, func() (interface{}, error) {
		return s.service.Vaults(), nil
	})
}

type createVaultRequest struct {
	Caller uuid.UUID `json:"caller"`
	Asset  string    `json:"asset"`
}

func (s *HTTPServer) handleCreateVault(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createVaultRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("create_vault", w, func() (interface{}, error) {
		return s.service.CreateVault(req.Caller, req.Asset)
	})
}

func (s *HTTPServer) handleGetVault(w http.ResponseWriter, r *http.Request, params map[string]string) {
	s.observe("get_vault", w, func() (interface{}, error) {
		return s.service.Vault(params["asset"])
	})
}

func (s *HTTPServer) handlePreview(w http.ResponseWriter, r *http.Request, params map[string]string) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		s.writeError(w, "preview", http.StatusBadRequest, fmt.Errorf("invalid amount: %w", err))
		return
	}
	s.observe("preview", w, func() (interface{}, error) {
		result, err := s.service.Preview(params["asset"], params["op"], amount)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"result": result}, nil
	})
}

type depositRequest struct {
	Caller   uuid.UUID `json:"caller"`
	Receiver uuid.UUID `json:"receiver"`
	Assets   int64     `json:"assets"`
}

func (s *HTTPServer) handleDeposit(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("deposit", w, func() (interface{}, error) {
		return s.service.Deposit(params["asset"], req.Caller, req.Assets, req.Receiver)
	})
}

type mintRequest struct {
	Caller   uuid.UUID `json:"caller"`
	Receiver uuid.UUID `json:"receiver"`
	Shares   int64     `json:"shares"`
}

func (s *HTTPServer) handleMint(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("mint", w, func() (interface{}, error) {
		return s.service.Mint(params["asset"], req.Caller, req.Shares, req.Receiver)
	})
}

type withdrawRequest struct {
	Caller   uuid.UUID `json:"caller"`
	Receiver uuid.UUID `json:"receiver"`
	Owner    uuid.UUID `json:"owner"`
	Assets   int64     `json:"assets"`
}

func (s *HTTPServer) handleWithdraw(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("withdraw", w, func() (interface{}, error) {
		return s.service.Withdraw(params["asset"], req.Caller, req.Assets, req.Receiver, req.Owner)
	})
}

type redeemRequest struct {
	Caller   uuid.UUID `json:"caller"`
	Receiver uuid.UUID `json:"receiver"`
	Owner    uuid.UUID `json:"owner"`
	Shares   int64     `json:"shares"`
}

func (s *HTTPServer) handleRedeem(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req redeemRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("redeem", w, func() (interface{}, error) {
		return s.service.Redeem(params["asset"], req.Caller, req.Shares, req.Receiver, req.Owner)
	})
}

type approveRequest struct {
	Owner   uuid.UUID `json:"owner"`
	Spender uuid.UUID `json:"spender"`
	Amount  int64     `json:"amount"`
}

func (s *HTTPServer) handleApprove(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req approveRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("approve", w, func() (interface{}, error) {
		if err := s.service.Approve(params["denom"], req.Owner, req.Spender, req.Amount); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	})
}

type fundRequest struct {
	Caller uuid.UUID `json:"caller"`
	To     uuid.UUID `json:"to"`
	Amount int64     `json:"amount"`
}

func (s *HTTPServer) handleFund(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req fundRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.observe("fund", w, func() (interface{}, error) {
		if err := s.service.Fund(req.Caller, params["denom"], req.To, req.Amount); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	})
}

func (s *HTTPServer) handleBalance(w http.ResponseWriter, r *http.Request, params map[string]string) {
	account, err := uuid.Parse(params["account"])
	if err != nil {
		s.writeError(w, "balance", http.StatusBadRequest, fmt.Errorf("invalid account: %w", err))
		return
	}
	s.observe("balance", w, func() (interface{}, error) {
		return s.service.BalanceOf(account, params["denom"]), nil
	})
}

// === plumbing ===

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, "decode", http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// observe runs fn, writes the JSON response and records request metrics.
func (s *HTTPServer) observe(endpoint string, w http.ResponseWriter, fn func() (interface{}, error)) {
	start := time.Now()
	result, err := fn()

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}

	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}

	if err != nil {
		s.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, status, result)
}

func (s *HTTPServer) writeError(w http.ResponseWriter, endpoint string, status int, err error) {
	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("encode response")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrZeroAmount), errors.Is(err, ledger.ErrZeroAddress):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientAllowance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrVaultExists):
		return http.StatusConflict
	case errors.Is(err, query.ErrVaultNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
