// Package api serves text features over HTTP: feature descriptors, batch
// encoding and decoding, health and Prometheus metrics.
package api

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
)

// maxBatch bounds the number of texts in one encode request.
const maxBatch = 1024

// Server exposes a fixed set of text features. The features must be fully
// bound before the server starts; handlers only read them.
type Server struct {
	features map[string]*features.Text
	names    []string
	log      logger.Logger
	metrics  *metrics
}

func NewServer(feats map[string]*features.Text, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		features: maps.Clone(feats),
		names:    slices.Sorted(maps.Keys(feats)),
		log:      log,
		metrics:  newMetrics(),
	}
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.metrics.registry }

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", s.metrics.handler())

	e.GET("/v1/features", s.handleListFeatures)
	e.GET("/v1/features/:name", s.handleGetFeature)
	e.POST("/v1/features/:name/encode", s.handleEncode)
	e.POST("/v1/features/:name/decode", s.handleDecode)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"features": len(s.features),
	})
}

func (s *Server) describe(name string, tf *features.Text) FeatureResponse {
	resp := FeatureResponse{
		Object:  "feature",
		Name:    name,
		Encoded: tf.Encoder() != nil,
		Tensor:  tf.TensorInfo(),
	}
	if cfg, ok := tf.EncoderConfig(); ok {
		resp.Kind = string(cfg.Kind)
		resp.VocabSize = cfg.VocabSize
	}
	if n := tf.VocabSize(); n > 0 {
		resp.VocabSize = n
	}
	return resp
}

func (s *Server) handleListFeatures(c *echo.Context) error {
	data := make([]FeatureResponse, 0, len(s.names))
	for _, name := range s.names {
		data = append(data, s.describe(name, s.features[name]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

func (s *Server) lookup(c *echo.Context) (string, *features.Text, error) {
	name := c.Param("name")
	tf, ok := s.features[name]
	if !ok {
		return name, nil, writeNotFound(c, fmt.Sprintf("feature %q not found", name))
	}
	return name, tf, nil
}

func (s *Server) handleGetFeature(c *echo.Context) error {
	name, tf, err := s.lookup(c)
	if tf == nil {
		return err
	}
	return c.JSON(http.StatusOK, s.describe(name, tf))
}

func (s *Server) fail(c *echo.Context, op string, start time.Time, err error) error {
	status, _ := errorStatus(err)
	s.metrics.observe(op, status, start)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "operation", op, "error", err)
	}
	return writeOpError(c, err)
}

func (s *Server) handleEncode(c *echo.Context) error {
	const op = "encode"
	start := time.Now()
	name, tf, err := s.lookup(c)
	if tf == nil {
		return err
	}

	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return s.fail(c, op, start, newInvalidRequest("", "invalid JSON body: "+err.Error()))
	}
	texts, ok := req.Input.Texts()
	if !ok {
		return s.fail(c, op, start, newInvalidRequest("input", "input is required"))
	}
	if len(texts) > maxBatch {
		return s.fail(c, op, start, newInvalidRequest("input",
			fmt.Sprintf("at most %d inputs per request, got %d", maxBatch, len(texts))))
	}

	resp := EncodeResponse{
		ID:      newID("enc"),
		Object:  "list",
		Feature: name,
		Data:    make([]Encoding, 0, len(texts)),
	}
	ids := 0
	for i, t := range texts {
		ex, err := tf.EncodeExample(t)
		if err != nil {
			return s.fail(c, op, start, fmt.Errorf("input %d: %w", i, err))
		}
		ids += len(ex.IDs)
		resp.Data = append(resp.Data, Encoding{Object: "encoding", Index: i, IDs: ex.IDs, Bytes: ex.Bytes})
	}
	s.metrics.addTokens(name, "encode", ids)
	s.metrics.observe(op, http.StatusOK, start)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDecode(c *echo.Context) error {
	const op = "decode"
	start := time.Now()
	name, tf, err := s.lookup(c)
	if tf == nil {
		return err
	}

	req, err := decodeJSON[DecodeRequest](c.Request().Body)
	if err != nil {
		return s.fail(c, op, start, newInvalidRequest("", "invalid JSON body: "+err.Error()))
	}
	out, err := tf.IntsToStr(req.IDs)
	if err != nil {
		return s.fail(c, op, start, err)
	}
	s.metrics.addTokens(name, "decode", len(req.IDs))
	s.metrics.observe(op, http.StatusOK, start)
	return c.JSON(http.StatusOK, DecodeResponse{
		ID:      newID("dec"),
		Object:  "decoding",
		Feature: name,
		Text:    out,
	})
}
