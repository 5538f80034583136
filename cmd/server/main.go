package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/factory"
	"github.com/maisondudroit/entretien/internal"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Server represents the HTTP server with RecordManager
type Server struct {
	manager  entretien.RecordManager
	health   func(ctx context.Context) error
	sanitize *bluemonday.Policy
	mux      *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(manager entretien.RecordManager, health func(ctx context.Context) error) *Server {
	return &Server{
		manager:  manager,
		health:   health,
		sanitize: bluemonday.StrictPolicy(),
		mux:      http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/form", s.handleForm)
	s.mux.HandleFunc("/api/v1/form/jsonschema", s.handleFormJSONSchema)
	s.mux.HandleFunc("/api/v1/entretiens", s.handleEntretiens)
	s.mux.HandleFunc("/api/v1/entretiens/", s.handleEntretien)
}

func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func main() {
	config, err := entretien.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}
	config.ApplyEnv()

	logger, err := internal.NewLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if err := config.Validate(); err != nil {
		sugar.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := internal.NewPool(ctx, config.Database)
	if err != nil {
		sugar.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	manager, err := factory.NewRecordManagerWithConfig(ctx, config, pool)
	if err != nil {
		sugar.Fatalf("failed to create record manager: %v", err)
	}

	// Load the form once so a broken catalog is caught at startup.
	if _, err := manager.FormDefinition(ctx); err != nil {
		sugar.Fatalf("failed to load form definition: %v", err)
	}

	server := NewServer(manager, func(ctx context.Context) error {
		return internal.CheckRecordStore(ctx, pool, config.Tables)
	})
	server.RegisterRoutes()

	if err := server.Start(config.Server.Port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}
