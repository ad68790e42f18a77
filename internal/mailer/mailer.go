package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"tryst/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type Branding struct {
	Festival     string
	SupportEmail string
	SiteURL      string
}

type confirmation struct {
	Branding
	Name        string
	College     string
	RollNumber  string
	Year        string
	Course      string
	Phone       string
	Email       string
	Event       string
	EventTitle  string
	TeamMembers string
}

// Notifier renders registration confirmations and hands them to a Sender.
// Submitted values are HTML-escaped by html/template.
type Notifier struct {
	sender Sender
	tmpl   *template.Template
	brand  Branding
	titles func(slug string) string
	log    *zerolog.Logger
}

// NewNotifier builds a notifier. titles maps an event slug to the title shown
// in the mail; nil shows the slug.
func NewNotifier(sender Sender, brand Branding, titles func(string) string, log *zerolog.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if titles == nil {
		titles = func(s string) string { return s }
	}
	return &Notifier{
		sender: sender,
		tmpl:   tmpl,
		brand:  brand,
		titles: titles,
		log:    log,
	}, nil
}

func (n *Notifier) GeneralRegistrationConfirmed(ctx context.Context, reg *model.GeneralRegistration) error {
	body, err := n.render("general_registration", confirmation{
		Branding:   n.brand,
		Name:       reg.Name,
		College:    reg.College,
		RollNumber: reg.RollNumber,
		Year:       reg.Year,
		Course:     reg.Course,
		Phone:      reg.Phone,
		Email:      reg.Email,
	})
	if err != nil {
		return err
	}
	subject := n.brand.Festival + " Registration Confirmation"
	return n.Send(ctx, reg.Email, subject, body)
}

func (n *Notifier) EventRegistrationConfirmed(ctx context.Context, reg *model.EventRegistration) error {
	title := n.titles(reg.Event)
	body, err := n.render("event_registration", confirmation{
		Branding:    n.brand,
		Name:        reg.Name,
		College:     reg.College,
		RollNumber:  reg.RollNumber,
		Phone:       reg.Phone,
		Email:       reg.Email,
		Event:       reg.Event,
		EventTitle:  title,
		TeamMembers: reg.TeamMembers,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s Event Registration Confirmation - %s", n.brand.Festival, title)
	return n.Send(ctx, reg.Email, subject, body)
}

// Send delivers one HTML mail. Any failure is reported as ErrDelivery.
func (n *Notifier) Send(ctx context.Context, to, subject, html string) error {
	_, err := n.sender.Send(ctx, SendRequest{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		n.log.Warn().Err(err).Str("email", to).Msg("failed to send confirmation email")
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (n *Notifier) render(name string, data confirmation) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: render %s: %w", ErrDelivery, name, err)
	}
	return buf.String(), nil
}
