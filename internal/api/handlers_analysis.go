package api

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

const (
	maxAddressLength = 128
	maxReasonLength  = 2000
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// SnapshotSummary describes a snapshot without its records
type SnapshotSummary struct {
	Available  bool             `json:"available"`
	SourceUsed types.SourceKind `json:"sourceUsed,omitempty"`
	FetchedAt  *time.Time       `json:"fetchedAt,omitempty"`
	AgeSeconds int64            `json:"ageSeconds"`
	Records    int              `json:"records"`
	Degraded   bool             `json:"degraded"`
	Warning    string           `json:"warning,omitempty"`
}

// validateAddress accepts EVM hex addresses and other non-blank chain identifiers.
// Anything starting with 0x must be a well-formed 20-byte hex address.
func validateAddress(address string) error {
	if address == "" || len(address) > maxAddressLength {
		return apperrors.NewInvalidAddressError(address)
	}
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		if !common.IsHexAddress(address) {
			return apperrors.NewInvalidAddressError(address)
		}
		return nil
	}
	if strings.IndexFunc(address, unicode.IsSpace) >= 0 {
		return apperrors.NewInvalidAddressError(address)
	}
	return nil
}

func validateReason(reason string) error {
	if len(reason) > maxReasonLength {
		return apperrors.NewInvalidParameterError("reason", "too long")
	}
	return nil
}

// handleAnalyze handles POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	s.analyze(w, r, strings.TrimSpace(req.Address), req.Reason)
}

// handleWalletRisk handles GET /api/wallets/{address}/risk?reason=
func (s *Server) handleWalletRisk(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	s.analyze(w, r, address, r.URL.Query().Get("reason"))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, address, reason string) {
	requestedBy := r.Header.Get("X-User-ID")
	if requestedBy == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User ID required", nil)
		return
	}
	if err := validateAddress(address); err != nil {
		respondCategorizedError(w, err)
		return
	}
	if err := validateReason(reason); err != nil {
		respondCategorizedError(w, err)
		return
	}

	// degraded verdicts are still well-formed results
	respondJSON(w, http.StatusOK, s.analyzer.Analyze(r.Context(), address, reason, requestedBy))
}

// handleGetSnapshot handles GET /api/snapshot
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, summarize(s.snapshots.Current(), time.Now()))
}

// handleRefreshSnapshot handles POST /api/snapshot/refresh
func (s *Server) handleRefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.GetTransactions(r.Context(), true)
	if err != nil {
		respondCategorizedError(w, apperrors.NewInternalError("snapshot refresh aborted", err))
		return
	}
	respondJSON(w, http.StatusOK, summarize(snap, time.Now()))
}

// handleSourceHealth handles GET /api/sources/health
func (s *Server) handleSourceHealth(w http.ResponseWriter, r *http.Request) {
	health := s.snapshots.SourceHealth()
	healthy := true
	for _, h := range health {
		if !h.IsHealthy {
			healthy = false
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"healthy": healthy,
		"sources": health,
	})
}

func summarize(snap *types.TransactionSnapshot, now time.Time) SnapshotSummary {
	if snap == nil {
		return SnapshotSummary{}
	}
	fetchedAt := snap.FetchedAt.UTC()
	return SnapshotSummary{
		Available:  true,
		SourceUsed: snap.SourceUsed,
		FetchedAt:  &fetchedAt,
		AgeSeconds: int64(now.Sub(snap.FetchedAt).Seconds()),
		Records:    snap.Len(),
		Degraded:   snap.Degraded,
		Warning:    snap.Warning,
	}
}
