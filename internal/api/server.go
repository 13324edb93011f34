// Package api serves the read-only status HTTP API and the Prometheus
// metrics endpoint. It never mutates bot state.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"smc-trading-bot/internal/bot"
	"smc-trading-bot/internal/metrics"
	"smc-trading-bot/internal/strategy"
)

// BotAPI is the slice of the orchestrator the server reads from.
type BotAPI interface {
	Status() bot.Status
	OpenOrders() []bot.PlacedOrder
	ClosedTrades() []bot.ClosedTrade
	OpenPOIs() []strategy.POI
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// DefaultServerConfig serves on :8080 when enabled.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Port: 8080}
}

// Server is the HTTP status server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	botAPI     BotAPI
	logger     zerolog.Logger
}

// NewServer builds the router and handlers.
func NewServer(cfg ServerConfig, botAPI BotAPI, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: router,
		},
		botAPI: botAPI,
		logger: logger.With().Str("component", "api").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := s.router.Group("/api")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.GET("/orders", s.handleOrders)
		apiGroup.GET("/pois", s.handlePOIs)
		apiGroup.GET("/trades", s.handleTrades)
	}
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("status server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("status server stopped")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
