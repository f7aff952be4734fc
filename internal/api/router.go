package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the handler under /api/v1.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(h.log))
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.Health)
		api.GET("/patients", h.ListPatients)
		api.GET("/patients/:id", h.GetPatient)
		api.GET("/tests/:id/analysis", h.Analysis)
		api.GET("/tests/:id/report", h.Report)
		api.GET("/tests/:id/hr", h.HeartRate)
		api.GET("/tests/:id/plot/strip", h.StripPlot)
		api.GET("/tests/:id/plot/hr", h.HeartRatePlot)
		api.POST("/analyze", h.Analyze)
	}
	return router
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
