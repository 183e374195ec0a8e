package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestacom/go-stock-orders/internal/catalog"
	"github.com/gestacom/go-stock-orders/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain error taxonomy onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var (
		notFound  *domain.NotFoundError
		noStock   *domain.InsufficientStockError
		transport *catalog.TransportError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound.Error()})
	case errors.As(err, &noStock):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     noStock.Error(),
			"available": noStock.Available,
		})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrAlreadyValidated):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderValidated):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &transport):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": transport.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
