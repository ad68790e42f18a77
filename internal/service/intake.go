package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"tryst/internal/dto"
	"tryst/internal/mailer"
	"tryst/internal/model"
	"tryst/internal/repo"
	"tryst/pkg/validator"
)

// ErrDuplicateSubmission is returned when a registration's email is already
// on record, whether caught by the advisory lookup or by the store.
var ErrDuplicateSubmission = errors.New("email already registered")

func (s *service) SubmitContact(ctx *ginext.Context) {
	var req dto.ContactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse contact request")
		dto.BadRequestError(ctx, dto.InvalidJSON, "")
		return
	}
	req.Normalize()
	if err := validator.Validate(ctx, s.validate, req); err != nil {
		s.respondError(ctx, err, dto.ContactSaveFailed)
		return
	}

	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		College: req.College,
		Course:  req.Course,
		Message: req.Message,
	}
	if err := s.repo.CreateContactMessage(ctx.Request.Context(), msg); err != nil {
		s.respondError(ctx, err, dto.ContactSaveFailed)
		return
	}
	s.log.Info().Str("id", msg.ID).Msg("contact message saved")

	dto.CreatedResponse(ctx, dto.ContactSubmitted)
}

func (s *service) SubmitRegistration(ctx *ginext.Context) {
	var req dto.GeneralRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse registration request")
		dto.BadRequestError(ctx, dto.InvalidJSON, "")
		return
	}
	req.Normalize()
	if err := validator.Validate(ctx, s.validate, req); err != nil {
		s.respondError(ctx, err, dto.RegistrationSaveFailed)
		return
	}

	reg := &model.GeneralRegistration{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		College:    req.College,
		RollNumber: req.RollNumber,
		Year:       req.Year,
		Course:     req.Course,
	}
	if err := s.registerGeneral(ctx.Request.Context(), reg); err != nil {
		s.respondError(ctx, err, dto.RegistrationSaveFailed)
		return
	}

	dto.CreatedResponse(ctx, dto.RegistrationSubmitted)
}

func (s *service) SubmitEventRegistration(ctx *ginext.Context) {
	var req dto.EventRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse event registration request")
		dto.BadRequestError(ctx, dto.InvalidJSON, "")
		return
	}
	req.Normalize()
	if err := validator.Validate(ctx, s.validate, req); err != nil {
		s.respondError(ctx, err, dto.EventSaveFailed)
		return
	}

	reg := &model.EventRegistration{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		College:     req.College,
		RollNumber:  req.RollNumber,
		Event:       req.Event,
		TeamMembers: req.TeamMembers,
	}
	if err := s.registerEvent(ctx.Request.Context(), reg); err != nil {
		s.respondError(ctx, err, dto.EventSaveFailed)
		return
	}

	dto.CreatedResponse(ctx, dto.EventRegistrationSubmitted)
}

// registerGeneral runs duplicate check, write and confirmation mail in that
// order. A delivery failure is returned after the record is already stored.
func (s *service) registerGeneral(ctx context.Context, reg *model.GeneralRegistration) error {
	exists, err := s.repo.EmailExists(ctx, model.KindGeneralRegistration, reg.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSubmission
	}
	if err := s.repo.CreateGeneralRegistration(ctx, reg); err != nil {
		return duplicateOr(err)
	}
	s.log.Info().Str("id", reg.ID).Msg("registration saved")

	return s.notifier.GeneralRegistrationConfirmed(context.WithoutCancel(ctx), reg)
}

func (s *service) registerEvent(ctx context.Context, reg *model.EventRegistration) error {
	exists, err := s.repo.EmailExists(ctx, model.KindEventRegistration, reg.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSubmission
	}
	if err := s.repo.CreateEventRegistration(ctx, reg); err != nil {
		return duplicateOr(err)
	}
	s.log.Info().Str("id", reg.ID).Str("event", reg.Event).Msg("event registration saved")

	return s.notifier.EventRegistrationConfirmed(context.WithoutCancel(ctx), reg)
}

// duplicateOr maps a unique-index violation lost to a concurrent submission
// onto the same outcome as the advisory check.
func duplicateOr(err error) error {
	if errors.Is(err, repo.ErrDuplicateKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateSubmission, err)
	}
	return err
}

func (s *service) respondError(ctx *ginext.Context, err error, saveFailed string) {
	var (
		inputErr  *validator.FieldError
		recordErr *model.FieldError
	)
	switch {
	case errors.As(err, &inputErr):
		dto.BadRequestError(ctx, inputErr.Message, inputErr.Field)
	case errors.As(err, &recordErr):
		dto.BadRequestError(ctx, validator.ErrFieldRequired, recordErr.Field)
	case errors.Is(err, ErrDuplicateSubmission):
		s.log.Info().Err(err).Msg("duplicate submission rejected")
		dto.DuplicateError(ctx)
	case errors.Is(err, mailer.ErrDelivery):
		s.log.Error().Err(err).Msg("record saved but confirmation not delivered")
		dto.InternalServerError(ctx, dto.ConfirmationEmailFailed)
	default:
		s.log.Error().Err(err).Msg(saveFailed)
		dto.InternalServerError(ctx, saveFailed)
	}
}
