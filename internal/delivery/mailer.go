package delivery

import (
	"context"
	"fmt"
	"io"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/anstrom/scanbridge/internal/config"
)

// Message is a single report mail.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// ReportMessage builds the mail that carries the PDF report of taskID.
func ReportMessage(taskID, recipient string, pdf []byte) Message {
	return Message{
		To:             recipient,
		Subject:        "OpenVAS Scan Report for Task " + taskID,
		Body:           fmt.Sprintf("Attached is the PDF report for your scan (Task ID: %s).", taskID),
		AttachmentName: fmt.Sprintf("scan_report_%s.pdf", taskID),
		Attachment:     pdf,
	}
}

// Mailer sends report mails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the relay in cfg. Connections time out
// after timeout.
func NewSMTPMailer(cfg config.SMTPConfig, timeout time.Duration) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Username == "" {
		// Local relays accept unauthenticated mail, often without TLS.
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	if timeout > 0 {
		d.Timeout = timeout
	}
	return &SMTPMailer{dialer: d, from: cfg.From}
}

// Send builds msg and hands it to the relay. The relay protocol has no
// cancellation, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(m.build(msg))
}

func (m *SMTPMailer) build(msg Message) *mail.Message {
	mm := mail.NewMessage()
	mm.SetHeader("From", m.from)
	mm.SetHeader("To", msg.To)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetBody("text/plain", msg.Body)
	if len(msg.Attachment) > 0 {
		data := msg.Attachment
		mm.Attach(msg.AttachmentName,
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			mail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		)
	}
	return mm
}
