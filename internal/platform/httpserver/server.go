package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	bountyengine "nearshield/contexts/bounty-escrow/bounty-engine"
	httpadapter "nearshield/contexts/bounty-escrow/bounty-engine/adapters/http"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	bountyhttp "nearshield/contexts/bounty-escrow/bounty-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "nearshield/internal/platform/httpserver/docs"
)

const (
	headerAccountID       = "X-Account-Id"
	headerAttachedDeposit = "X-Attached-Deposit"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	engine  bountyengine.Module
	metrics http.Handler
	server  *http.Server
}

func New(engine bountyengine.Module, metrics http.Handler, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		engine:  engine,
		metrics: metrics,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/cancel", s.handleCancelCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/submissions", s.handleSubmitBug)
	s.mux.HandleFunc("POST /v1/submissions/{submission_id}/review", s.handleReviewSubmission)
	s.mux.HandleFunc("POST /v1/ft/on-transfer", s.handleFTOnTransfer)

	s.mux.HandleFunc("POST /v1/admin/paused", s.handleSetPaused)
	s.mux.HandleFunc("POST /v1/admin/treasury", s.handleSetTreasury)
	s.mux.HandleFunc("POST /v1/admin/admin", s.handleSetAdmin)
	s.mux.HandleFunc("POST /v1/admin/withdraw-fees", s.handleWithdrawFees)
	s.mux.HandleFunc("POST /v1/admin/emergency-withdraw", s.handleEmergencyWithdraw)

	s.mux.HandleFunc("GET /v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/submissions", s.handleListCampaignSubmissions)
	s.mux.HandleFunc("GET /v1/submissions/{submission_id}", s.handleGetSubmission)
	s.mux.HandleFunc("GET /v1/leaderboard/finders", s.handleTopFinders)
	s.mux.HandleFunc("GET /v1/leaderboard/projects", s.handleTopProjects)
	s.mux.HandleFunc("GET /v1/events", s.handleListEvents)
	s.mux.HandleFunc("GET /v1/custody", s.handleCustody)
	s.mux.HandleFunc("GET /v1/state", s.handleContractState)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.CreateCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.CreateCampaignNativeHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCancelCampaign(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	campaignID, ok := pathID(w, r, "campaign_id")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.CancelCampaignHandler(r.Context(), caller, campaignID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitBug(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	campaignID, ok := pathID(w, r, "campaign_id")
	if !ok {
		return
	}
	var req bountyhttp.SubmitBugRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.SubmitBugHandler(r.Context(), caller, campaignID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	submissionID, ok := pathID(w, r, "submission_id")
	if !ok {
		return
	}
	var req bountyhttp.ReviewSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.ReviewSubmissionHandler(r.Context(), caller, submissionID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFTOnTransfer is called with X-Account-Id set to the token contract.
func (s *Server) handleFTOnTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.FTOnTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.FTOnTransferHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.SetPausedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.engine.Handler.SetPausedHandler(r.Context(), caller, req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTreasury(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.SetAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.engine.Handler.SetTreasuryHandler(r.Context(), caller, req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.SetAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.engine.Handler.SetAdminHandler(r.Context(), caller, req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.WithdrawFeesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.WithdrawFeesHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req bountyhttp.EmergencyWithdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.engine.Handler.EmergencyWithdrawHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	from, limit, ok := pageParams(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ListCampaignsHandler(r.Context(), from, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := pathID(w, r, "campaign_id")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.GetCampaignHandler(r.Context(), campaignID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCampaignSubmissions(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := pathID(w, r, "campaign_id")
	if !ok {
		return
	}
	from, limit, ok := pageParams(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ListCampaignSubmissionsHandler(r.Context(), campaignID, from, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := pathID(w, r, "submission_id")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.GetSubmissionHandler(r.Context(), submissionID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopFinders(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.TopFindersHandler(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopProjects(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.TopProjectsHandler(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var afterSeq uint64
	if raw := r.URL.Query().Get("after_seq"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_after_seq", "after_seq must be an unsigned integer")
			return
		}
		afterSeq = value
	}
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ListEventsHandler(r.Context(), afterSeq, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCustody(w http.ResponseWriter, r *http.Request) {
	var token *string
	query := r.URL.Query()
	if query.Has("token") {
		value := strings.TrimSpace(query.Get("token"))
		token = &value
	}
	resp, err := s.engine.Handler.CustodyHandler(r.Context(), token)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContractState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.ContractStateHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireCaller(w http.ResponseWriter, r *http.Request) (httpadapter.CallContext, bool) {
	accountID := strings.TrimSpace(r.Header.Get(headerAccountID))
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return httpadapter.CallContext{}, false
	}
	return httpadapter.CallContext{
		Predecessor:     accountID,
		AttachedDeposit: r.Header.Get(headerAttachedDeposit),
	}, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an unsigned integer")
		return 0, false
	}
	return value, true
}

func pageParams(w http.ResponseWriter, r *http.Request) (uint64, *uint64, bool) {
	query := r.URL.Query()
	var from uint64
	if raw := query.Get("from"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be an unsigned integer")
			return 0, nil, false
		}
		from = value
	}
	var limit *uint64
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an unsigned integer")
			return 0, nil, false
		}
		limit = &value
	}
	return from, limit, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return value, true
}

func statusForTag(tag string) int {
	switch tag {
	case "NotFound":
		return http.StatusNotFound
	case "NotOwner", "NotAdmin", "UntrustedToken":
		return http.StatusForbidden
	case "Paused", "NotPaused", "AlreadyCancelled", "Cancelled", "Ended", "InvalidTransition", "InsufficientSurplus":
		return http.StatusConflict
	case "BadConfig", "BadSeverity", "RewardRequired", "RewardExceedsMax", "BadMessage", "DepositTooSmall", "BalanceOverflow":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	tag := domainerrors.Tag(err)
	if tag == "" {
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeError(w, statusForTag(tag), tag, err.Error())
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, bountyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
