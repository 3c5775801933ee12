// Пакет server — служебный HTTP-сервер: health-пробы и метрики.
// Чатовая поверхность бота идёт через long polling, HTTP несёт только
// эксплуатационные endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/database"
)

// Server — служебный HTTP-сервер.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New создаёт сервер с маршрутами /healthz, /readyz и /metrics.
func New(port int, readiness *database.ReadinessChecker, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status, message := readiness.CheckReady()
		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status, "message": message})
	})

	router.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger.With(slog.String("component", "ops_server")),
	}
}

// Start запускает сервер в фоне; ошибка (кроме штатного закрытия)
// уходит в errCh.
func (s *Server) Start(errCh chan<- error) {
	go func() {
		s.logger.Info("Служебный HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("ошибка служебного HTTP-сервера: %w", err)
		}
	}()
}

// Shutdown выполняет graceful shutdown сервера.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeJSON пишет JSON-ответ со статусом.
func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
