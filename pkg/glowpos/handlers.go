package glowpos

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/skcglow/glowpos/pkg/models"
)

// User-facing API messages. The storefront renders these verbatim.
const (
	msgMethodNotAllowed = "Método no permitido"
	msgInvalidJSON      = "JSON inválido."
	msgInvalidPayload   = "Payload inválido. Envía catalog/sales/customers."
)

// apiResponse is the envelope of every /api/data response. Data is present
// on success only.
type apiResponse struct {
	OK      bool             `json:"ok"`
	Storage string           `json:"storage,omitempty"`
	Message string           `json:"message,omitempty"`
	Data    *models.Document `json:"data,omitempty"`
}

// handleGetData returns the composite document together with the storage tier
// that actually served it.
func (a *App) handleGetData(w http.ResponseWriter, r *http.Request) {
	doc, storage := a.store.Get(r.Context())
	respondJSON(w, http.StatusOK, apiResponse{OK: true, Storage: string(storage), Data: &doc})
}

// handlePostData merges the posted collections into the stored document and
// returns the merged result. The payload may carry the collections at the top
// level or nested under "data"; fields that are not valid arrays of the
// expected shape are treated as absent. A payload with no usable collection
// at all is rejected.
func (a *App) handlePostData(w http.ResponseWriter, r *http.Request) {
	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if nested, ok := envelope["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			envelope = inner
		}
	}

	partial := extractPartial(envelope)
	if partial.Empty() {
		respondError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	doc, storage := a.store.Set(r.Context(), partial)
	respondJSON(w, http.StatusOK, apiResponse{OK: true, Storage: string(storage), Data: &doc})
}

// handleHealth reports liveness and the currently active storage tier.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, storage := a.store.Get(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"storage": string(storage),
	})
}

func (a *App) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// extractPartial pulls whichever collections decode cleanly from the posted
// envelope. Clients occasionally post junk in one field next to a valid
// collection in another, so extraction is per field rather than all or
// nothing.
func extractPartial(envelope map[string]json.RawMessage) models.Partial {
	var partial models.Partial
	if raw, ok := envelope["catalog"]; ok && isArray(raw) {
		var catalog []models.CatalogItem
		if json.Unmarshal(raw, &catalog) == nil {
			partial.Catalog = &catalog
		}
	}
	if raw, ok := envelope["sales"]; ok && isArray(raw) {
		var sales []models.SaleRecord
		if json.Unmarshal(raw, &sales) == nil {
			partial.Sales = &sales
		}
	}
	if raw, ok := envelope["customers"]; ok && isArray(raw) {
		var customers []models.Customer
		if json.Unmarshal(raw, &customers) == nil {
			partial.Customers = &customers
		}
	}
	return partial
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apiResponse{OK: false, Message: message})
}
