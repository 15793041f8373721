package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/jbweber/homelab/pokedex/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// extractClientIP returns the IP of the connection peer. It reads the address
// recorded by peerAddr, so headers rewritten by RealIP do not change the key.
// Returns an error if the IP cannot be parsed.
func extractClientIP(r *http.Request) (string, error) {
	addr := r.RemoteAddr
	if peer, ok := r.Context().Value(peerAddrKey{}).(string); ok {
		addr = peer
	}

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		if net.ParseIP(addr) != nil {
			return addr, nil
		}
		return "", fmt.Errorf("unable to parse remote address: %w", err)
	}
	return ip, nil
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message})
}

// writeServiceError maps the service error kinds onto status codes.
// Internal failures are reported with a generic message.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, err.Error())
	default:
		if !errors.Is(err, service.ErrInternal) {
			logger.Error("unclassified error", "error", err)
		}
		writeError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}
