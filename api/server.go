// Package api exposes the prediction and recommendation services over
// HTTP. Payload field names follow the propiedades schema.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"geoprecio/artifacts"
	"geoprecio/predictor"
	"geoprecio/recommend"
	"geoprecio/storage"
)

type Server struct {
	store     storage.Store
	predictor *predictor.Predictor
	scorer    *recommend.Scorer
	bundle    *artifacts.Bundle
	srv       *http.Server
}

func NewServer(addr string, store storage.Store, p *predictor.Predictor, s *recommend.Scorer, b *artifacts.Bundle) *Server {
	server := &Server{
		store:     store,
		predictor: p,
		scorer:    s,
		bundle:    b,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", server.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/prediccion", server.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/recomendaciones", server.handleRecommend).Methods(http.MethodPost)
	api.HandleFunc("/propiedades", server.handleUpsertProperty).Methods(http.MethodPost)
	api.HandleFunc("/modelo/info", server.handleModelInfo).Methods(http.MethodGet)
	api.HandleFunc("/comunas", server.handleComunas).Methods(http.MethodGet)

	server.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	log.Printf("HTTP API listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
