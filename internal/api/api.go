// Package api serves event ingestion and stats queries over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fadedpez/scrapstats/internal/commands"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/directory"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/services/ingest"
	"github.com/fadedpez/scrapstats/pkg/services/statistics"
)

// maxBodyBytes caps POST payloads
const maxBodyBytes = 1 << 16

// Recorder applies currency-flow events
type Recorder interface {
	Record(ctx context.Context, ev ingest.Event) (entities.PlayerStats, error)
}

// Queries answers stats lookups. Lookups never create ledger entries.
type Queries interface {
	LookupStats(ctx context.Context, playerID string) (directory.Player, entities.PlayerStats, error)
	SearchStats(ctx context.Context, text string) (directory.Player, entities.PlayerStats, error)
	TopStats(ctx context.Context) []statistics.RankedPlayer
}

// Commands runs chat commands forwarded by the game server
type Commands interface {
	ExecuteLine(ctx context.Context, caller commands.Caller, line string) commands.Reply
}

// RequestObserver records per-route request metrics
type RequestObserver interface {
	ObserveRequest(route string, code int, took time.Duration)
}

// Server wires HTTP routes for the stats API
type Server struct {
	recorder Recorder
	queries  Queries
	commands Commands
	observer RequestObserver
	metrics  http.Handler
	logger   *logging.Logger
}

// Option configures a Server
type Option func(*Server)

// WithCommands serves chat commands on POST /commands
func WithCommands(c Commands) Option {
	return func(s *Server) { s.commands = c }
}

// WithObserver records request counts and latencies
func WithObserver(o RequestObserver) Option {
	return func(s *Server) { s.observer = o }
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new API server
func NewServer(recorder Recorder, queries Queries, opts ...Option) *Server {
	s := &Server{
		recorder: recorder,
		queries:  queries,
		logger:   logging.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", s.instrument("events", s.handlePostEvent))
	mux.HandleFunc("GET /players/{id}", s.instrument("players", s.handleGetPlayer))
	mux.HandleFunc("GET /search", s.instrument("search", s.handleSearch))
	mux.HandleFunc("GET /leaderboard", s.instrument("leaderboard", s.handleLeaderboard))
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealth))
	if s.commands != nil {
		mux.HandleFunc("POST /commands", s.instrument("commands", s.handlePostCommand))
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// eventRequest is the POST /events body
type eventRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Kind       string `json:"kind"`
	Amount     int64  `json:"amount"`
}

// commandRequest is the POST /commands body, one chat line from a player
type commandRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Line       string `json:"line"`
	Admin      bool   `json:"admin"`
}

type commandResponse struct {
	Text    string `json:"text"`
	Private bool   `json:"private"`
}

type playerResponse struct {
	Player     directory.Player     `json:"player"`
	Stats      entities.PlayerStats `json:"stats"`
	ProfitLoss int64                `json:"profit_loss"`
}

type errorResponse struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

// handlePostEvent handles POST /events
func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, types.WrapError(types.ErrValidation, "malformed event body", err))
		return
	}

	kind, err := entities.ParseFlowKind(req.Kind)
	if err != nil {
		kind = entities.FlowKind(req.Kind)
	}

	stats, err := s.recorder.Record(r.Context(), ingest.Event{
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		Kind:       kind,
		Amount:     req.Amount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, playerResponse{
		Player:     directory.Player{ID: req.PlayerID, Name: req.PlayerName},
		Stats:      stats,
		ProfitLoss: stats.ProfitLoss(),
	})
}

// handlePostCommand handles POST /commands
func (s *Server) handlePostCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, types.WrapError(types.ErrValidation, "malformed command body", err))
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		s.writeError(w, types.NewStatsError(types.ErrValidation, "player id is required"))
		return
	}

	reply := s.commands.ExecuteLine(r.Context(), commands.Caller{
		ID:    req.PlayerID,
		Name:  req.PlayerName,
		Admin: req.Admin,
	}, req.Line)
	writeJSON(w, http.StatusOK, commandResponse{Text: reply.Text, Private: reply.Private})
}

// handleGetPlayer handles GET /players/{id}
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, stats, err := s.queries.LookupStats(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{
		Player:     player,
		Stats:      stats,
		ProfitLoss: stats.ProfitLoss(),
	})
}

// handleSearch handles GET /search?q=<name or id>
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	player, stats, err := s.queries.SearchStats(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{
		Player:     player,
		Stats:      stats,
		ProfitLoss: stats.ProfitLoss(),
	})
}

// handleLeaderboard handles GET /leaderboard
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queries.TopStats(r.Context()))
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Code: types.ErrInternalError, Message: http.StatusText(http.StatusInternalServerError)}
	status := http.StatusInternalServerError

	var statsErr *types.StatsError
	if types.As(err, &statsErr) {
		resp.Code = statsErr.Code
		resp.Message = statsErr.Message
		status = statusFor(statsErr.Code)
	}
	if status >= http.StatusInternalServerError {
		s.logger.LogError(err)
		resp.Message = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func statusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrValidation, types.ErrInvalidArgument:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
