// Package apiserver exposes the decision Manager over a small HTTP API:
// a single POST endpoint that accepts an operation, a resource path, and a
// flat attribute string, and returns the allow/deny outcome as JSON.
package apiserver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gtriggiano/hierauthz/pkg/config"
	"github.com/gtriggiano/hierauthz/pkg/decision"
)

const defaultGracefulShutdownTimeout = 5 * time.Second

// Server wraps the HTTP decision API.
type Server struct {
	cfg        config.ServerConfig
	manager    *decision.Manager
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer constructs the HTTP server and registers its handlers.
func NewServer(cfg config.ServerConfig, manager *decision.Manager, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/v1/check", checkHandler(manager, logger))

	return &Server{
		cfg:     cfg,
		manager: manager,
		logger:  logger,
		httpServer: &http.Server{
			Addr:    cfg.Address,
			Handler: mux,
		},
	}
}

// Start begins serving and blocks until context cancellation or server error.
func (s *Server) Start(ctx context.Context, onReady func()) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on address '%s': %w", s.cfg.Address, err)
	}

	if s.cfg.TLS != nil {
		tlsConfig, err := buildTLSConfig(s.cfg)
		if err != nil {
			return err
		}
		listener = tls.NewListener(listener, tlsConfig)
	}

	if onReady != nil {
		onReady()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("decision API shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("decision API listening", zap.String("addr", s.cfg.Address))

	err = s.httpServer.Serve(listener)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// buildTLSConfig loads TLS assets and returns a server TLS configuration.
func buildTLSConfig(cfg config.ServerConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{}
	if cfg.TLS == nil {
		return tlsCfg, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("could not load server certificate: %w", err)
	}
	tlsCfg.Certificates = []tls.Certificate{cert}

	if cfg.TLS.CAFile != "" {
		caData, err := os.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("could not load CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caData) {
			return nil, fmt.Errorf("CA certificates addition failed")
		}
		tlsCfg.ClientCAs = pool
	}

	if cfg.TLS.RequireClientCert {
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsCfg, nil
}

// checkRequest is the JSON body accepted by POST /v1/check.
type checkRequest struct {
	Operation string `json:"operation"`
	Path      string `json:"path"`
	Context   string `json:"context"`
}

// checkResponse is the JSON body returned by POST /v1/check.
type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Error   string `json:"error,omitempty"`
}

func checkHandler(manager *decision.Manager, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, checkResponse{Error: "malformed request body"})
			return
		}

		allowed, err := manager.Check(req.Operation, req.Path, req.Context)
		if err != nil {
			logger.Debug("check request rejected", zap.Error(err))
			writeJSON(w, http.StatusBadRequest, checkResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, checkResponse{Allowed: allowed})
	})
}

func writeJSON(w http.ResponseWriter, status int, body checkResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
