package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/db"
	"github.com/smoak-intel/prospector/internal/domain"
	"github.com/smoak-intel/prospector/internal/export"
	"github.com/smoak-intel/prospector/internal/usecase/prospect"
	saveduc "github.com/smoak-intel/prospector/internal/usecase/saved"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeSearchInFlight     = "search_in_flight"
	codeConfigurationError = "configuration_error"
	codeProviderError      = "provider_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the prospecting workspace over HTTP.
type Server struct {
	workspace     *prospect.Workspace
	saved         *saveduc.Service
	pinger        db.Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	workspace *prospect.Workspace,
	saved *saveduc.Service,
	pinger db.Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		workspace: workspace,
		saved:     saved,
		pinger:    pinger,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(prospect.ErrSearchInFlight, http.StatusConflict, codeSearchInFlight),
		sentinelHandler(domain.ErrMissingAPIKey, http.StatusInternalServerError, codeConfigurationError),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.SubmitSearch)
	r.Post("/search/more", s.LoadMore)
	r.Get("/workspace", s.GetWorkspace)
	r.Post("/view", s.SetView)
	r.Get("/saved", s.GetSaved)
	r.Post("/saved/toggle", s.ToggleSave)
	r.Get("/export.csv", s.ExportCSV)
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// --- DTOs ---

type searchRequest struct {
	DiamondType string `json:"diamondType"`
	BuyerType   string `json:"buyerType"`
	MarketTier  string `json:"marketTier"`
	Location    string `json:"location"`
	Keywords    string `json:"keywords"`
}

type buyerDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	ContactInfo string `json:"contactInfo"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Specialty   string `json:"specialty"`
	Saved       bool   `json:"saved"`
}

type workspaceDTO struct {
	State         string     `json:"state"`
	View          string     `json:"view"`
	Buyers        []buyerDTO `json:"buyers"`
	MarketInsight string     `json:"marketInsight,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	HasSearched   bool       `json:"hasSearched"`
	Count         int        `json:"count"`
}

func (s *Server) buyersToDTO(buyers []domain.Buyer) []buyerDTO {
	out := make([]buyerDTO, len(buyers))
	for i, b := range buyers {
		out[i] = buyerDTO{
			ID:          b.ID,
			Name:        b.Name,
			Location:    b.Location,
			Type:        b.Type,
			ContactInfo: b.ContactInfo,
			Website:     b.Website,
			Description: b.Description,
			Specialty:   b.Specialty,
			Saved:       s.saved.IsSaved(b.Name),
		}
	}
	return out
}

// workspaceDTO renders the active list for the current view: the saved set
// in saved view, the accumulated set otherwise.
func (s *Server) workspaceToDTO() workspaceDTO {
	snap := s.workspace.Snapshot()

	active := snap.Buyers
	if snap.View.ShowsSaved() {
		active = s.saved.List()
	}
	buyers := s.buyersToDTO(active)

	return workspaceDTO{
		State:         string(snap.State),
		View:          string(snap.View),
		Buyers:        buyers,
		MarketInsight: snap.MarketInsight,
		LastError:     snap.LastError,
		HasSearched:   snap.HasSearched,
		Count:         len(buyers),
	}
}

// --- Handlers ---

// SubmitSearch handles POST /search.
func (s *Server) SubmitSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query, err := domain.NewQuery(req.DiamondType, req.BuyerType, req.MarketTier, req.Location, req.Keywords)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.workspace.Search(r.Context(), query); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.workspaceToDTO())
}

// LoadMore handles POST /search/more. Guard conditions inside the workspace
// make redundant triggers silent no-ops.
func (s *Server) LoadMore(w http.ResponseWriter, r *http.Request) {
	added, err := s.workspace.LoadMore(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"added":     added,
		"workspace": s.workspaceToDTO(),
	})
}

// GetWorkspace handles GET /workspace.
func (s *Server) GetWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspaceToDTO())
}

// SetView handles POST /view.
func (s *Server) SetView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	mode, err := domain.ParseViewMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.workspace.SetView(mode)
	writeJSON(w, http.StatusOK, s.workspaceToDTO())
}

// GetSaved handles GET /saved.
func (s *Server) GetSaved(w http.ResponseWriter, _ *http.Request) {
	buyers := s.buyersToDTO(s.saved.List())
	writeJSON(w, http.StatusOK, map[string]any{
		"buyers": buyers,
		"count":  len(buyers),
	})
}

// ToggleSave handles POST /saved/toggle.
func (s *Server) ToggleSave(w http.ResponseWriter, r *http.Request) {
	var req buyerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Buyer name is required")
		return
	}

	saved := s.saved.Toggle(r.Context(), domain.Buyer{
		ID:          req.ID,
		Name:        req.Name,
		Location:    req.Location,
		Type:        req.Type,
		ContactInfo: req.ContactInfo,
		Website:     req.Website,
		Description: req.Description,
		Specialty:   req.Specialty,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"saved": saved,
		"count": len(s.saved.List()),
	})
}

// ExportCSV handles GET /export.csv. The exported list follows the active
// view, matching what the user is looking at.
func (s *Server) ExportCSV(w http.ResponseWriter, _ *http.Request) {
	snap := s.workspace.Snapshot()
	buyers := snap.Buyers
	if snap.View.ShowsSaved() {
		buyers = s.saved.List()
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)

	if err := export.WriteCSV(w, buyers); err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
	}
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler creates an errorHandler matching a sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError maps a domain error to an HTTP response.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := err.Error()
	for _, handle := range s.errorHandlers {
		if handle(w, err, msg) {
			return
		}
	}

	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
