/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/api"
	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/artifact"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/database"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/handler"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/lock"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/metrics"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/middleware"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/service"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	cfg        *config.Server
	logger     *zap.Logger
	router     *gin.Engine
	db         *database.DB // nil for the memory driver
	repos      *repository.Repositories
	engine     *service.ProvisioningEngine
	wsManager  *websocket.Manager
	httpServer *http.Server
}

// NewProvisioningServer creates a new server instance with all dependencies initialized
func NewProvisioningServer(cfg *config.Server, logger *zap.Logger) (*Server, error) {
	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	repos, db, err := openRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := openArtifactStore(cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	metrics.Init()

	locks := lock.NewKeyedMutex()

	// WebSocket manager first, the events service publishes through it
	wsConfig := websocket.DefaultManagerConfig()
	wsConfig.MaxConnections = cfg.WebSocket.MaxConnections
	wsConfig.MaxConnectionsPerProject = cfg.WebSocket.MaxPerProject
	wsConfig.HeartbeatTimeout = time.Duration(cfg.WebSocket.ConnectionTimeout) * time.Second
	wsManager := websocket.NewManager(wsConfig, logger)

	// Initialize services
	events := service.NewProjectEventsService(wsManager, logger)
	userService := service.NewUserService(repos.Users, logger)
	authService := service.NewAuthService(repos.Users, cfg.JWT, logger)
	projectService := service.NewProjectService(repos, locks, events, logger)
	participantService := service.NewParticipantService(repos, locks, logger)
	applicationService := service.NewApplicationService(repos, locks, logger)
	engine := service.NewProvisioningEngine(repos, store, locks, events, cfg.Provisioning.MaxParallel, logger)

	seeded, err := service.NewSeeder(repos, userService, cfg.Bootstrap, logger).Seed()
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to seed initial data: %w", err)
	}
	if seeded {
		logger.Info("Initial data seeded", zap.String("admin_email", cfg.Bootstrap.AdminEmail))
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, userService, logger)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	participantHandler := handler.NewParticipantHandler(participantService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	provisioningHandler := handler.NewProvisioningHandler(engine)
	wsHandler := handler.NewWebSocketHandler(wsManager, projectService, cfg.WebSocket.RateLimitPerMin, logger)
	openAPIHandler := handler.NewOpenAPIHandler(api.Spec())

	router := gin.New()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.CorrelationIDMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	// CORS runs before authentication so preflight requests are answered
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.AuthMiddleware(middleware.AuthConfig{
		Resolver:         authService,
		SkipPaths:        cfg.JWT.SkipPaths,
		PublicRoutes:     []string{http.MethodPost + " " + handler.APIPrefix + "/users"},
		QueryTokenPrefix: handler.APIPrefix + "/ws/",
	}))

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		db:        db,
		repos:     repos,
		engine:    engine,
		wsManager: wsManager,
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	// Register routes
	authHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router)
	projectHandler.RegisterRoutes(router)
	participantHandler.RegisterRoutes(router)
	applicationHandler.RegisterRoutes(router)
	provisioningHandler.RegisterRoutes(router)
	wsHandler.RegisterRoutes(router)
	openAPIHandler.RegisterRoutes(router)

	logger.Info("Provisioning server initialized",
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("workspace", cfg.Workspace.Dir),
		zap.Int("max_parallel_kits", cfg.Provisioning.MaxParallel),
		zap.Int("ws_max_connections", cfg.WebSocket.MaxConnections))

	return s, nil
}

func openRepositories(cfg *config.Server, logger *zap.Logger) (*repository.Repositories, *database.DB, error) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		logger.Warn("Using the in-memory store, data is lost on restart")
		repos, err := repository.NewMemoryRepositories()
		return repos, nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	// Skip when ExecuteSchemaDDL is false, e.g. deployed Postgres without DDL access
	if cfg.Database.ExecuteSchemaDDL {
		if err := db.InitSchema(); err != nil {
			closeDB(db)
			return nil, nil, err
		}
	} else {
		logger.Info("Skipping schema DDL execution (DATABASE_EXECUTE_SCHEMA_DDL=false)")
	}
	return repository.NewSQLRepositories(db), db, nil
}

// openArtifactStore keeps kits in memory alongside the memory driver and
// on disk otherwise
func openArtifactStore(cfg *config.Server) (artifact.Store, error) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		return artifact.NewMemoryStore(), nil
	}

	codec, err := artifact.ParseCodec(cfg.Workspace.Compression)
	if err != nil {
		return nil, err
	}
	files, err := artifact.NewFileStore(cfg.Workspace.Dir, codec)
	if err != nil {
		return nil, err
	}
	return artifact.NewRetryingStore(files, cfg.Provisioning.StoreRetries), nil
}

func closeDB(db *database.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.repos.Health.PingContext(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

// generateSelfSignedCert creates a self-signed certificate for development and saves it to disk
func generateSelfSignedCert(certPath, keyPath string) (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Sorachain Provisioning Dev"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save private key: %w", err)
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

// loadCertificate reuses the persisted development certificate or creates one
func (s *Server) loadCertificate() (tls.Certificate, error) {
	certDir := s.cfg.TLS.CertDir
	certPath := filepath.Join(certDir, "cert.pem")
	keyPath := filepath.Join(certDir, "key.pem")

	if _, certErr := os.Stat(certPath); certErr == nil {
		if _, keyErr := os.Stat(keyPath); keyErr == nil {
			cert, err := tls.LoadX509KeyPair(certPath, keyPath)
			if err == nil {
				s.logger.Info("Using existing certificates", zap.String("cert_dir", certDir))
				return cert, nil
			}
			s.logger.Warn("Failed to load certificates, regenerating", zap.Error(err))
		}
	}

	s.logger.Info("Generating self-signed certificate for development", zap.String("cert_dir", certDir))
	if err := os.MkdirAll(certDir, 0755); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create cert directory: %w", err)
	}
	cert, err := generateSelfSignedCert(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	return cert, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	s.httpServer = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	if s.cfg.TLS.Enabled {
		cert, err := s.loadCertificate()
		if err != nil {
			s.Close(context.Background())
			return err
		}
		s.httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		s.logger.Info("Starting HTTPS server", zap.String("address", s.httpServer.Addr))
		go func() { errCh <- s.httpServer.ListenAndServeTLS("", "") }()
	} else {
		s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		go func() { errCh <- s.httpServer.ListenAndServe() }()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, lets in-flight runs finish and
// releases every resource
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down provisioning server")

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}
	s.Close(ctx)
	return httpErr
}

// Close drains the provisioning engine and releases the session manager and
// database without touching the HTTP listener
func (s *Server) Close(ctx context.Context) {
	if err := s.engine.Shutdown(ctx); err != nil {
		s.logger.Warn("Provisioning runs did not finish before shutdown", zap.Error(err))
	}
	s.wsManager.Shutdown()
	closeDB(s.db)
}

// GetRouter returns the gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
