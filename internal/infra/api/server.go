package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/config"
	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/adapter"
	"fashion-ai-studio/internal/infra/logging"
	"fashion-ai-studio/internal/infra/redis"
	"fashion-ai-studio/internal/usecase"
)

// maxWebhookBody bounds raw webhook reads; payment events are small.
const maxWebhookBody = 1 << 20

// Server wires the HTTP surface to the use cases. All client routes sit
// behind bearer auth; the worker tick and webhook have their own guards.
type Server struct {
	jobUC    usecase.JobUseCase
	statusUC usecase.StatusUseCase
	creditUC usecase.CreditUseCase
	workerUC usecase.WorkerUseCase
	payUC    usecase.PaymentUseCase

	verifier adapter.IdentityVerifier
	limiter  *redis.RateLimiter
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewServer(
	jobUC usecase.JobUseCase,
	statusUC usecase.StatusUseCase,
	creditUC usecase.CreditUseCase,
	workerUC usecase.WorkerUseCase,
	payUC usecase.PaymentUseCase,
	verifier adapter.IdentityVerifier,
	limiter *redis.RateLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "API").Logger()
	return &Server{
		jobUC:    jobUC,
		statusUC: statusUC,
		creditUC: creditUC,
		workerUC: workerUC,
		payUC:    payUC,
		verifier: verifier,
		limiter:  limiter,
		cfg:      cfg,
		log:      &l,
	}
}

// Router assembles the full route tree with middleware applied.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	base := []Middleware{
		TraceID(s.log),
		Recover(s.log),
		RequestLog(s.log),
		Timeout(s.cfg.Server.RequestTimeout),
	}
	wrap := func(h http.HandlerFunc, extra ...Middleware) http.Handler {
		return Chain(h, append(append([]Middleware{}, base...), extra...)...)
	}

	auth := Authenticate(s.verifier)
	var createLimit Middleware = func(next http.Handler) http.Handler { return next }
	if s.cfg.RateLimit.Enabled {
		createLimit = RateLimit(s.limiter, "job_create", s.cfg.RateLimit.Limit, s.cfg.RateLimit.Window, s.log)
	}

	r.Method(http.MethodPost, "/api/v1/jobs", wrap(s.handleCreateJob, auth, createLimit))
	r.Method(http.MethodGet, "/api/v1/jobs", wrap(s.handleListJobs, auth))
	r.Method(http.MethodGet, "/api/v1/jobs/{jobID}", wrap(s.handleJobStatus, auth))
	r.Method(http.MethodPost, "/api/v1/jobs/{jobID}/cancel", wrap(s.handleCancelJob, auth))
	r.Method(http.MethodGet, "/api/v1/credits", wrap(s.handleCredits, auth))
	r.Method(http.MethodGet, "/api/v1/credit-packs", wrap(s.handleCreditPacks, auth))

	r.Method(http.MethodPost, "/internal/worker/tick",
		wrap(s.handleWorkerTick, RequireAPIKey("x-api-key", s.cfg.Auth.WorkerAPIKey)))
	r.Method(http.MethodPost, "/webhooks/payment", wrap(s.handlePaymentWebhook))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type createJobRequest struct {
	Prompt         string                 `json:"prompt"`
	NegativePrompt string                 `json:"negative_prompt"`
	InputAssetID   *string                `json:"input_asset_id"`
	ModelPreset    string                 `json:"model_preset"`
	PosePreset     string                 `json:"pose_preset"`
	ScenePreset    string                 `json:"scene_preset"`
	GenerationType string                 `json:"generation_type"`
	Params         map[string]interface{} `json:"params"`
}

type createJobResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	CostCredits      int64  `json:"cost_credits"`
	RemainingCredits int64  `json:"remaining_credits"`
	QueuedAt         string `json:"queued_at"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	draft := &model.JobDraft{
		UserID:         UserID(r.Context()),
		InputAssetID:   req.InputAssetID,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ModelPreset:    req.ModelPreset,
		PosePreset:     req.PosePreset,
		ScenePreset:    req.ScenePreset,
		Params:         req.Params,
		GenerationType: model.GenerationType(req.GenerationType),
	}

	job, remaining, err := s.jobUC.Create(r.Context(), draft)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createJobResponse{
		JobID:            job.ID,
		Status:           string(job.Status),
		CostCredits:      job.CostCredits,
		RemainingCredits: remaining,
		QueuedAt:         job.QueuedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ctx := logging.WithJobID(r.Context(), jobID)
	st, err := s.statusUC.Get(ctx, jobID, UserID(ctx))
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	jobs, err := s.jobUC.ListForUser(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	items := make([]*model.ProjectedStatus, 0, len(jobs))
	now := time.Now()
	for _, j := range jobs {
		items = append(items, &model.ProjectedStatus{
			JobID:        j.ID,
			Status:       j.Status,
			Progress:     model.EstimateProgress(j.Status, j.StartedAt, j.QueuedAt, now),
			Prompt:       j.Prompt,
			ModelPreset:  j.ModelPreset,
			CostCredits:  j.CostCredits,
			Attempts:     j.Attempts,
			QueuedAt:     j.QueuedAt,
			StartedAt:    j.StartedAt,
			CompletedAt:  j.CompletedAt,
			ErrorMessage: j.ErrorMessage,
			OutputURLs:   []string{},
			CreatedAt:    j.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ctx := logging.WithJobID(r.Context(), jobID)
	if err := s.jobUC.Cancel(ctx, jobID, UserID(ctx)); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": string(model.JobStatusCancelled)})
}

type ledgerEntryView struct {
	ID          string `json:"id"`
	TxType      string `json:"tx_type"`
	Amount      int64  `json:"amount"`
	Balance     int64  `json:"balance_after"`
	JobID       string `json:"job_id,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	balance, err := s.creditUC.Balance(r.Context(), userID)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	entries, err := s.creditUC.Entries(r.Context(), userID, 50)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	views := make([]ledgerEntryView, 0, len(entries))
	for _, e := range entries {
		v := ledgerEntryView{
			ID:          e.ID,
			TxType:      string(e.TxType),
			Amount:      e.Amount,
			Balance:     e.BalanceAfter,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if e.JobID != nil {
			v.JobID = *e.JobID
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"entries": views,
	})
}

func (s *Server) handleCreditPacks(w http.ResponseWriter, _ *http.Request) {
	packs := make([]model.CreditPack, 0, len(model.CreditPacks))
	for _, p := range model.CreditPacks {
		packs = append(packs, p)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].Credits < packs[j].Credits })
	writeJSON(w, http.StatusOK, map[string]interface{}{"packs": packs})
}

func (s *Server) handleWorkerTick(w http.ResponseWriter, r *http.Request) {
	result, err := s.workerUC.Tick(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("worker tick failed")
		writeErr(w, http.StatusInternalServerError, "tick failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(result)})
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "unreadable body")
		return
	}
	signature := r.Header.Get(s.cfg.Payment.SignatureHeader)

	if _, err := s.payUC.Ingest(r.Context(), body, signature); err != nil {
		switch {
		case errors.Is(err, domain.ErrBadSignature):
			writeErr(w, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, domain.ErrInvalidPayload):
			writeErr(w, http.StatusBadRequest, "invalid payload")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("webhook ingest failed")
			writeErr(w, http.StatusInternalServerError, "ingest failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErr(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrUnauthorized):
		writeErr(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrInsufficientCredits):
		writeErr(w, http.StatusPaymentRequired, "Insufficient credits")
	case errors.Is(err, domain.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrJobTerminal):
		writeErr(w, http.StatusConflict, "job is not cancellable")
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
