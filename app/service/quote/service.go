package quote

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"portfolio/app/config"

	_ "embed"

	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/wneessen/go-mail"
)

//go:embed quote_email.html
var emailTemplate string

// ErrNotConfigured is returned when the SMTP relay is not set up. Handlers
// map it to a service-misconfigured response.
var ErrNotConfigured = oops.Errorf("smtp relay is not configured")

// Request is a quote form submission from the frontend.
type Request struct {
	SolutionType string `json:"solutionType"`
	Budget       string `json:"budget"`
	Timeline     string `json:"timeline"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Company      string `json:"company"`
	Phone        string `json:"phone"`
	Details      string `json:"details" validate:"required"`
}

type Service struct {
	cfg      *config.Config
	validate *validator.Validate
	tmpl     *template.Template
}

func New(di *do.Injector) (*Service, error) {
	return NewWithConfig(do.MustInvoke[*config.Config](di))
}

func NewWithConfig(cfg *config.Config) (*Service, error) {
	tmpl, err := template.New("quote_email").Parse(emailTemplate)
	if err != nil {
		return nil, oops.Errorf("failed to parse quote email template: %w", err)
	}

	return &Service{
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tmpl:     tmpl,
	}, nil
}

func (s *Service) Validate(req *Request) error {
	return s.validate.Struct(req)
}

// Send renders the quote request as an HTML email and delivers it to the
// configured contact address over SMTP.
func (s *Service) Send(ctx context.Context, req *Request) error {
	if s.cfg.SMTP.Host == "" || s.cfg.SMTP.User == "" {
		return ErrNotConfigured
	}

	body, err := s.render(req)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err = msg.From(s.cfg.SMTP.User); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err = msg.To(s.cfg.SMTP.ContactEmail); err != nil {
		return fmt.Errorf("invalid contact address: %w", err)
	}
	if err = msg.ReplyTo(req.Email); err != nil {
		return fmt.Errorf("invalid reply-to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("New quote request from %s", req.Name))
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := mail.NewClient(s.cfg.SMTP.Host,
		mail.WithPort(s.cfg.SMTP.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTP.User),
		mail.WithPassword(s.cfg.SMTP.Pass),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err = client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send quote email: %w", err)
	}

	return nil
}

func (s *Service) render(req *Request) (string, error) {
	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, req); err != nil {
		return "", fmt.Errorf("failed to render quote email: %w", err)
	}

	return body.String(), nil
}
