package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	gomail "github.com/wneessen/go-mail"

	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/internal/order/domain"
)

const Subject = "Confirmacion de pago - AltIQ"

//go:embed templates/order_thank_you.txt
var templates embed.FS

var thankYou = template.Must(template.ParseFS(templates, "templates/order_thank_you.txt"))

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Sender struct {
	log *slog.Logger
	cfg Config
}

func NewSender(log *slog.Logger, cfg Config) *Sender {
	return &Sender{log: log, cfg: cfg}
}

type thankYouData struct {
	CustomerName string
	OrderID      string
	Amount       string
	Currency     string
	Codes        []application.CodeLine
}

// Render returns the plain-text confirmation body.
func Render(o domain.Order, codes []application.CodeLine) (string, error) {
	var buf bytes.Buffer
	err := thankYou.Execute(&buf, thankYouData{
		CustomerName: o.Customer.Name,
		OrderID:      o.ID,
		Amount:       o.Amount.StringFixed(2),
		Currency:     o.Currency,
		Codes:        codes,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Message builds the confirmation email for o.
func (s *Sender) Message(o domain.Order, codes []application.CodeLine) (*gomail.Msg, error) {
	body, err := Render(o, codes)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", s.cfg.From, err)
	}
	if err := m.To(o.Customer.Email); err != nil {
		return nil, fmt.Errorf("to %q: %w", o.Customer.Email, err)
	}
	m.Subject(Subject)
	m.SetBodyString(gomail.TypeTextPlain, body)
	return m, nil
}

func (s *Sender) SendThankYou(ctx context.Context, o domain.Order, codes []application.CodeLine) error {
	m, err := s.Message(o, codes)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("confirmation email sent", "order_id", o.ID, "codes", len(codes))
	return nil
}
