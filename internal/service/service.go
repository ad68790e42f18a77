package service

import (
	"context"
	"errors"
	"net/http"

	playground "github.com/go-playground/validator"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tryst/internal/catalog"
	"tryst/internal/dto"
	"tryst/internal/model"
	"tryst/internal/repo"
	"tryst/internal/session"
	"tryst/pkg/validator"
)

type Service interface {
	SubmitContact(ctx *ginext.Context)
	SubmitRegistration(ctx *ginext.Context)
	SubmitEventRegistration(ctx *ginext.Context)

	ListContacts(ctx *ginext.Context)
	ListRegistrations(ctx *ginext.Context)
	ListEventRegistrations(ctx *ginext.Context)
	Stats(ctx *ginext.Context)

	Login(ctx *ginext.Context)
	CheckAuth(ctx *ginext.Context)
	Logout(ctx *ginext.Context)
	RequireAdmin(ctx *ginext.Context)

	Events(ctx *ginext.Context)
	Health(ctx *ginext.Context)
}

// Notifier sends the registration confirmation mails.
type Notifier interface {
	GeneralRegistrationConfirmed(ctx context.Context, reg *model.GeneralRegistration) error
	EventRegistrationConfirmed(ctx context.Context, reg *model.EventRegistration) error
}

type service struct {
	repo     repo.Repository
	notifier Notifier
	guard    session.Guard
	catalog  *catalog.Catalog
	validate *playground.Validate
	log      *zerolog.Logger
}

func NewService(r repo.Repository, n Notifier, g session.Guard, c *catalog.Catalog, logger *zerolog.Logger) Service {
	return &service{
		repo:     r,
		notifier: n,
		guard:    g,
		catalog:  c,
		validate: validator.New(c.Has),
		log:      logger,
	}
}

func (s *service) RequireAdmin(ctx *ginext.Context) {
	if !s.guard.Check(ctx) {
		dto.NotAuthenticatedError(ctx)
		return
	}
	ctx.Next()
}

func (s *service) ListContacts(ctx *ginext.Context) {
	contacts, err := s.repo.ListContactMessages(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list contact messages")
		dto.InternalServerError(ctx, dto.FetchFailed)
		return
	}
	dto.SuccessResponse(ctx, contacts)
}

func (s *service) ListRegistrations(ctx *ginext.Context) {
	regs, err := s.repo.ListGeneralRegistrations(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx, dto.FetchFailed)
		return
	}
	dto.SuccessResponse(ctx, regs)
}

func (s *service) ListEventRegistrations(ctx *ginext.Context) {
	regs, err := s.repo.ListEventRegistrations(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list event registrations")
		dto.InternalServerError(ctx, dto.FetchFailed)
		return
	}
	dto.SuccessResponse(ctx, regs)
}

func (s *service) Stats(ctx *ginext.Context) {
	stats, err := s.repo.Stats(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count records")
		dto.InternalServerError(ctx, dto.FetchFailed)
		return
	}
	dto.SuccessResponse(ctx, stats)
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadRequestError(ctx, dto.InvalidJSON, "")
		return
	}

	if err := s.guard.Login(ctx, req.Email, req.Password); err != nil {
		if errors.Is(err, session.ErrUnauthorized) {
			dto.LoginFailedError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to issue admin session")
		dto.InternalServerError(ctx, "Login failed")
		return
	}
	dto.SuccessResponse(ctx, dto.LoginResponse{Success: true})
}

func (s *service) CheckAuth(ctx *ginext.Context) {
	if !s.guard.Check(ctx) {
		dto.NotAuthenticatedError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.AuthResponse{Authenticated: true})
}

func (s *service) Logout(ctx *ginext.Context) {
	s.guard.Logout(ctx)
	dto.SuccessResponse(ctx, dto.LoginResponse{Success: true})
}

func (s *service) Events(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, s.catalog)
}

func (s *service) Health(ctx *ginext.Context) {
	if err := s.repo.Ping(ctx.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "record store unavailable"})
		return
	}
	dto.SuccessResponse(ctx, map[string]string{"status": "ok"})
}
