package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sena168/satujam/internal/gateway"
	"github.com/sena168/satujam/internal/image"
	"github.com/sena168/satujam/pkg/models"
)

const (
	messageInvalidPrompt = "Invalid prompt"
	messageInternal      = "Internal server error"
)

type generateRequest struct {
	Prompt json.RawMessage `json:"prompt"`
}

type generateResponse struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// upstreamResponse always carries details, even when empty.
type upstreamResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	prompt, ok := decodePrompt(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: messageInvalidPrompt})
		return
	}

	res, err := s.gen.Generate(r.Context(), prompt)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}

	// Clients save every image as <id>.png, so the payload is always
	// labelled image/png.
	writeJSON(w, http.StatusOK, generateResponse{
		ID:    res.ID,
		Image: image.DataURI(models.FormatPNG.MIMEType(), res.Image),
	})
}

// decodePrompt accepts only a JSON object whose prompt is a string.
// Blank strings are left to the gateway.
func decodePrompt(r *http.Request) (string, bool) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	if len(req.Prompt) == 0 {
		return "", false
	}
	var prompt string
	if err := json.Unmarshal(req.Prompt, &prompt); err != nil {
		return "", false
	}
	return prompt, true
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		s.logger.Error("unclassified generation error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageInternal})
		return
	}

	switch gerr.Kind {
	case gateway.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: gerr.Message})
	case gateway.UpstreamError:
		writeJSON(w, http.StatusBadGateway, upstreamResponse{Error: gerr.Message, Details: gerr.Details})
	case gateway.TransportError:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: gerr.Message})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageInternal})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
