package dto

import (
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
)

const (
	ContactSubmitted           = "Form submitted successfully!"
	RegistrationSubmitted      = "Registration submitted successfully!"
	EventRegistrationSubmitted = "Event registration submitted successfully!"

	InvalidJSON             = "Invalid JSON format"
	AlreadyRegistered       = "This email is already registered"
	ContactSaveFailed       = "Failed to save contact data"
	RegistrationSaveFailed  = "Failed to save registration data"
	EventSaveFailed         = "Failed to save event registration data"
	ConfirmationEmailFailed = "Your registration was saved but the confirmation email could not be sent"
	FetchFailed             = "Failed to fetch data"
	NotAuthenticated        = "Not authenticated"
	InvalidCredentials      = "Invalid email or password"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	College string `json:"college" validate:"required,max=200"`
	Course  string `json:"course" validate:"required,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type GeneralRegistrationRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"required,phone"`
	College    string `json:"college" validate:"required,max=200"`
	RollNumber string `json:"rollNumber" validate:"required,max=50"`
	Year       string `json:"year" validate:"required,max=20"`
	Course     string `json:"course" validate:"required,max=200"`
}

type EventRegistrationRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,phone"`
	College     string `json:"college" validate:"required,max=200"`
	RollNumber  string `json:"rollNumber" validate:"required,max=50"`
	Event       string `json:"event" validate:"required,event"`
	TeamMembers string `json:"teamMembers" validate:"max=500"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.College = strings.TrimSpace(r.College)
	r.Course = strings.TrimSpace(r.Course)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *GeneralRegistrationRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.College = strings.TrimSpace(r.College)
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	r.Year = strings.TrimSpace(r.Year)
	r.Course = strings.TrimSpace(r.Course)
}

func (r *EventRegistrationRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.College = strings.TrimSpace(r.College)
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	r.Event = strings.ToLower(strings.TrimSpace(r.Event))
	r.TeamMembers = strings.TrimSpace(r.TeamMembers)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message,omitempty"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func CreatedResponse(c *ginext.Context, message string) {
	c.JSON(http.StatusCreated, MessageResponse{Message: message})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func BadRequestError(c *ginext.Context, desc, field string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: desc, Field: field})
}

func DuplicateError(c *ginext.Context) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: AlreadyRegistered})
}

func InternalServerError(c *ginext.Context, desc string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: desc})
}

// NotAuthenticatedError is the single unauthenticated answer for every admin
// endpoint.
func NotAuthenticatedError(c *ginext.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, AuthResponse{Authenticated: false, Message: NotAuthenticated})
}

func LoginFailedError(c *ginext.Context) {
	c.JSON(http.StatusUnauthorized, LoginResponse{Success: false, Message: InvalidCredentials})
}
