// Package server exposes the simulator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/market"
	"github.com/rustyeddy/forecast-trader/report"
	"github.com/rustyeddy/forecast-trader/sim"
)

// Config wires the server's collaborators.
type Config struct {
	Addr    string
	Engine  *sim.Engine
	Builder market.Builder // source for GET /simulate
	Tickers []string       // default tickers for GET /simulate
	Logger  *zap.Logger
}

type Server struct {
	addr    string
	engine  *sim.Engine
	builder market.Builder
	tickers []string
	logger  *zap.Logger
	router  *gin.Engine

	mu sync.Mutex // one run at a time; sinks are not concurrent
}

func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5000"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:    cfg.Addr,
		engine:  cfg.Engine,
		builder: cfg.Builder,
		tickers: cfg.Tickers,
		logger:  logging.OrNop(cfg.Logger),
		router:  router,
	}
	router.Use(s.logRequests)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/simulate", s.handleSimulateStored)
	s.router.POST("/simulate", s.handleSimulateBody)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("http request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// handleSimulateStored loads stored history for ?tickers=A,B and runs
// it. ?steps overrides the downsampling stride.
func (s *Server) handleSimulateStored(c *gin.Context) {
	if s.builder.Loader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data source configured"})
		return
	}

	tickers := s.tickers
	if q := strings.TrimSpace(c.Query("tickers")); q != "" {
		tickers = splitTickers(q)
	}
	if len(tickers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tickers required"})
		return
	}

	b := s.builder
	if q := c.Query("steps"); q != "" {
		steps, err := strconv.Atoi(q)
		if err != nil || steps < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "steps must be a positive integer"})
			return
		}
		b.Steps = steps
	}

	series, err := b.Build(c.Request.Context(), tickers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.simulate(c, series)
}

// handleSimulateBody runs the series posted as
// {"<ticker>": [[actual...], [predicted...]], ...}. Instruments keep the
// order they appear in the document.
func (s *Server) handleSimulateBody(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	series, err := ParseSeries(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.simulate(c, series)
}

func (s *Server) simulate(c *gin.Context, series []sim.Series) {
	s.mu.Lock()
	res, err := s.engine.Run(c.Request.Context(), series)
	s.mu.Unlock()

	switch {
	case errors.Is(err, sim.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil && res.RunID == "":
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case err != nil:
		// Result is complete; only journaling or enrichment failed.
		s.logger.Warn("run finished with error", zap.String("run_id", res.RunID), zap.Error(err))
	}

	c.Header("X-Run-ID", res.RunID)
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteJSON(c.Writer, report.NewPayload(res)); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseSeries decodes a ticker keyed object of [actual, predicted]
// pairs, preserving key order.
func ParseSeries(body []byte) ([]sim.Series, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", sim.ErrValidation)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: body must be an object keyed by ticker", sim.ErrValidation)
	}

	var (
		out  []sim.Series
		perr error
	)
	doc.ForEach(func(key, value gjson.Result) bool {
		var ser sim.Series
		ser, perr = parsePair(key.String(), value)
		out = append(out, ser)
		return perr == nil
	})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

func parsePair(ticker string, v gjson.Result) (sim.Series, error) {
	pair := v.Array()
	if !v.IsArray() || len(pair) != 2 {
		return sim.Series{}, fmt.Errorf("%w: %s: want [actual, predicted]", sim.ErrValidation, ticker)
	}
	actual, err := floats(pair[0])
	if err != nil {
		return sim.Series{}, fmt.Errorf("%w: %s actual: %v", sim.ErrValidation, ticker, err)
	}
	predicted, err := floats(pair[1])
	if err != nil {
		return sim.Series{}, fmt.Errorf("%w: %s predicted: %v", sim.ErrValidation, ticker, err)
	}
	return sim.Series{Instrument: ticker, Actual: actual, Predicted: predicted}, nil
}

func floats(v gjson.Result) ([]float64, error) {
	if !v.IsArray() {
		return nil, errors.New("not an array")
	}
	items := v.Array()
	out := make([]float64, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.Number {
			return nil, fmt.Errorf("non-numeric value %s", item.Raw)
		}
		out = append(out, item.Float())
	}
	return out, nil
}
