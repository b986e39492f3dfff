package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/goccy/go-json"

	"geoprecio/artifacts"
	"geoprecio/identity"
	"geoprecio/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		status, dbStatus = "degraded", err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"db":      dbStatus,
		"modelos": s.bundle.State(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "json invalido: "+err.Error())
		return
	}

	res, err := s.predictor.Predict(req.PropertyAttributes, req.UseStacking)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var profile models.PreferenceProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "json invalido: "+err.Error())
		return
	}

	candidates, err := s.store.ListCandidates(r.Context())
	if err != nil {
		log.Printf("Error listing candidates: %v", err)
		writeError(w, http.StatusInternalServerError, "error consultando candidatos")
		return
	}

	ranked, err := s.scorer.Score(&profile, candidates)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":           len(ranked),
		"recomendaciones": ranked,
	})
}

func (s *Server) handleUpsertProperty(w http.ResponseWriter, r *http.Request) {
	var p models.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "json invalido: "+err.Error())
		return
	}
	if p.Address == "" || p.Comuna == "" {
		writeError(w, http.StatusBadRequest, "direccion y comuna son obligatorias")
		return
	}

	p.Fingerprint = identity.Fingerprint(&p)
	if err := s.store.UpsertProperty(r.Context(), &p); err != nil {
		log.Printf("Error upserting property: %v", err)
		writeError(w, http.StatusInternalServerError, "error guardando propiedad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          p.ID,
		"fingerprint": p.Fingerprint,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"estado": s.bundle.State(),
		"modelos": map[string]any{
			models.MethodRFGlobal:    modelInfo(s.bundle.Global),
			models.MethodGWRFDensity: modelInfo(s.bundle.Density),
			models.MethodGWRFCluster: s.clusterInfo(),
			models.MethodStacking:    s.bundle.Meta != nil,
		},
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleComunas(w http.ResponseWriter, r *http.Request) {
	comunas, err := s.store.ListComunas(r.Context())
	if err != nil {
		log.Printf("Error listing comunas: %v", err)
		writeError(w, http.StatusInternalServerError, "error consultando comunas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(comunas),
		"comunas": comunas,
	})
}

func modelInfo(m *artifacts.LinearModel) any {
	if m == nil {
		return false
	}
	return map[string]any{
		"features": len(m.Features),
		"metricas": m.Metrics,
	}
}

func (s *Server) clusterInfo() any {
	if s.bundle.Cluster == nil {
		return false
	}
	return map[string]any{
		"clusters": len(s.bundle.Cluster.Centroids),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy to HTTP statuses: invalid
// input is the caller's fault, an unusable profile is unprocessable,
// anything else is ours.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	var ce *models.ConfigurationError
	if errors.As(err, &ce) {
		writeError(w, http.StatusUnprocessableEntity, ce.Error())
		return
	}
	log.Printf("Internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "error interno")
}
