// Package server exposes the RFP pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/rfp"
)

const (
	appName          = "RFP Responder API"
	defaultBodyLimit = 4 * 1024 * 1024
	inlineName       = "inline"
)

// FullRunRequest is the body of POST /rfp/full-run.
type FullRunRequest struct {
	Name string `json:"name" validate:"omitempty,max=255"`
	Text string `json:"text" validate:"required"`
}

// Server serves pipeline runs over the documents of an RFP library.
type Server struct {
	app      *fiber.App
	pipeline *pipeline.Pipeline
	library  *rfp.Library
	logger   *zap.Logger
	validate *validator.Validate
}

func New(p *pipeline.Pipeline, library *rfp.Library, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		pipeline: p,
		library:  library,
		logger:   logger,
		validate: validator.New(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
		BodyLimit:             defaultBodyLimit,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${status} - ${latency} ${method} ${path}\n",
		Output: zap.NewStdLog(logger.Named("http")).Writer(),
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.app.Get("/health", s.health)
	s.app.Get("/sales/run", s.salesRun)
	s.app.Get("/technical/run", s.technicalRun)
	s.app.Get("/pricing/run", s.pricingRun)
	s.app.Get("/rfp/full-run", s.fullRun)
	s.app.Post("/rfp/full-run", s.fullRunInline)
	s.app.Get("/pricing/:sku", s.priceItem)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"stages": s.pipeline.Status(),
	})
}

func (s *Server) salesRun(c *fiber.Ctx) error {
	report, err := s.runFirst(c, pipeline.ModeSales)
	if err != nil {
		return err
	}
	return c.JSON(report.SalesSummary)
}

func (s *Server) technicalRun(c *fiber.Ctx) error {
	report, err := s.runFirst(c, pipeline.ModeTechnical)
	if err != nil {
		return err
	}
	return c.JSON(report.Technical)
}

func (s *Server) pricingRun(c *fiber.Ctx) error {
	report, err := s.runFirst(c, pipeline.ModePricing)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"rfp_file":  report.RFPFile,
		"technical": report.Technical,
		"pricing":   report.Pricing,
	})
}

func (s *Server) fullRun(c *fiber.Ctx) error {
	report, err := s.runFirst(c, pipeline.ModeFull)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (s *Server) fullRunInline(c *fiber.Ctx) error {
	var req FullRunRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = inlineName
	}

	report, err := s.pipeline.Run(c.UserContext(), pipeline.ModeFull, &rfp.Document{Name: name, Path: name, Text: req.Text})
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (s *Server) priceItem(c *fiber.Ctx) error {
	quantity := pricing.DefaultQuantity
	if raw := strings.TrimSpace(c.Query("quantity")); raw != "" {
		q, err := decimal.NewFromString(raw)
		if err != nil || q.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be a non-negative number")
		}
		quantity = q
	}

	return c.JSON(s.pipeline.Calculator().PriceItem(c.Params("sku"), quantity))
}

func (s *Server) runFirst(c *fiber.Ctx, mode pipeline.Mode) (*pipeline.Report, error) {
	doc, err := s.library.First()
	if err != nil {
		return nil, err
	}
	return s.pipeline.Run(c.UserContext(), mode, doc)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, rfp.ErrNoDocuments):
		code = fiber.StatusNotFound
	case errors.Is(err, pipeline.ErrSummarizerUnavailable):
		code = fiber.StatusServiceUnavailable
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request payload"
	}

	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag()+" validation")
	}
	return strings.Join(parts, "; ")
}
