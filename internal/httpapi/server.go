/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server exposes health, metrics and the admin API over HTTP.
type Server struct {
	ledger *api.LedgerService
	cfg    models.HttpConfig
	engine *gin.Engine
}

func NewServer(ledger *api.LedgerService, cfg models.HttpConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{ledger: ledger, cfg: cfg, engine: gin.New()}
	s.engine.Use(gin.Recovery(), loggerMiddleware(), metricsMiddleware())

	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.AdminToken == "" {
		zap.L().Warn("ADMIN_API_TOKEN not set; admin HTTP API is disabled")
		return s
	}

	admin := s.engine.Group("/admin", adminTokenMiddleware(cfg.AdminToken))
	admin.GET("/withdrawals/pending", s.listPending)
	admin.GET("/withdrawals/:id", s.getWithdrawal)
	admin.POST("/withdrawals/:id/approve", s.approve)
	admin.POST("/withdrawals/:id/cancel", s.cancel)
	admin.POST("/credits", s.bulkCredit)
	admin.POST("/reconcile", s.reconcile)
	admin.GET("/users/:id", s.getUser)
	admin.DELETE("/users/:id", s.deleteUser)
	admin.GET("/users/:id/history", s.history)
	admin.GET("/users/:id/referrals", s.referrals)
	admin.PUT("/users/:id/balance", s.setBalance)
	admin.POST("/users/:id/blacklist", s.blacklist)
	admin.DELETE("/users/:id/blacklist", s.unblacklist)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	zap.L().Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
