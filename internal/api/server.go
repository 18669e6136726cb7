package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emperor/internal/action"
	"emperor/internal/chain"
	"emperor/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ActionPath is where the claim-throne action lives. The descriptor's
// follow-up link points back at it.
const ActionPath = "/api/actions/claim-throne"

const actionVersion = "2.1.3"

// Chain is the on-chain collaborator the handlers need: one read of the
// game state, one unsigned transaction build.
type Chain interface {
	FetchGameState(ctx context.Context) (*chain.GameState, error)
	BuildClaimTransaction(ctx context.Context, account string) (chain.Claim, error)
}

type Server struct {
	cfg   config.APIConfig
	log   *slog.Logger
	chain Chain
	mux   *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, chainSvc Chain) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:   cfg,
		log:   logger,
		chain: chainSvc,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route(ActionPath, func(r chi.Router) {
		r.Use(s.actionHeaders)
		r.Options("/", s.handleOptions)
		r.Get("/", s.handleDescriptor)
		r.Post("/", s.handleClaim)
	})
}

// actionHeaders stamps the fixed CORS and action-protocol headers on every
// response, success or error.
func (s *Server) actionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Content-Encoding, Accept-Encoding")
		h.Set("X-Blockchain-Ids", s.cfg.BlockchainIDs)
		h.Set("X-Action-Version", actionVersion)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	state, err := s.chain.FetchGameState(r.Context())
	if err != nil && !errors.Is(err, chain.ErrGameUninitialized) {
		s.log.Error("game state fetch failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	// An uninitialized game still gets a descriptor, just the degraded one.
	pricing := action.Translate(state)
	writeJSON(w, http.StatusOK, action.Describe(pricing, s.cfg.IconURL, ActionPath))
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Account string `json:"account"`
	}
	if err := decodeJSON(r, &in); err != nil || strings.TrimSpace(in.Account) == "" {
		writeError(w, http.StatusBadRequest, "Missing account")
		return
	}

	claim, err := s.chain.BuildClaimTransaction(r.Context(), in.Account)
	switch {
	case err == nil:
	case errors.Is(err, chain.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, "Invalid account")
		return
	case errors.Is(err, chain.ErrGameUninitialized):
		writeError(w, http.StatusBadRequest, "Game not initialized")
		return
	default:
		s.log.Error("claim transaction build failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, action.ClaimResponse{
		Transaction: claim.Transaction,
		Message:     action.ClaimMessage(claim.State),
	})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
