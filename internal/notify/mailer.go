package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/order"
)

// Mailer delivers a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds SMTP relay settings for the confirmation mailer.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer implements Mailer over a plain SMTP relay with AUTH PLAIN.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a Mailer for the given relay configuration.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers the message. The context is not honored mid-dial: net/smtp
// offers no context support, so cancellation takes effect between sends.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var a smtp.Auth
	if m.cfg.Username != "" {
		a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := smtp.SendMail(addr, a, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return errors.Wrapf(err, "send mail to %s", to)
	}
	return nil
}

// ConfirmationMail composes the subject and body of an order confirmation.
func ConfirmationMail(o *order.Order) (subject, body string) {
	subject = fmt.Sprintf("Your flower shop order %s", shortID(o.ID))

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", o.FirstName)
	fmt.Fprintf(&b, "You have successfully placed order %s.\n\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", it.Quantity, it.ProductName, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal().StringFixed(2))
	if o.Discount > 0 {
		fmt.Fprintf(&b, "Discount (%d%%): -%s\n", o.Discount, o.DiscountAmount().StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", o.Total().StringFixed(2))
	b.WriteString("\nThank you for shopping with us.\n")

	return subject, b.String()
}

// shortID returns the first segment of a UUID for friendlier subjects.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// OrderMailer glues the event stream to the mailer: it re-reads the order by
// id and sends the confirmation to the customer's on-file address.
type OrderMailer struct {
	orders order.Repository
	mailer Mailer
	lg     *zap.Logger
}

// NewOrderMailer creates an OrderMailer.
func NewOrderMailer(orders order.Repository, mailer Mailer, lg *zap.Logger) *OrderMailer {
	return &OrderMailer{orders: orders, mailer: mailer, lg: lg}
}

// HandleOrderCreated loads the order and sends its confirmation mail.
func (n *OrderMailer) HandleOrderCreated(ctx context.Context, ev OrderCreatedEvent) error {
	o, err := n.orders.GetByID(ctx, ev.OrderID)
	if err != nil {
		return errors.Wrapf(err, "load order %s", ev.OrderID)
	}

	subject, body := ConfirmationMail(o)
	if err := n.mailer.Send(ctx, o.Email, subject, body); err != nil {
		return errors.Wrap(err, "send confirmation")
	}

	n.lg.Info("confirmation sent",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total().StringFixed(2)))
	return nil
}
