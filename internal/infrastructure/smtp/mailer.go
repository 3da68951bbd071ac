package smtp

import (
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/config"
)

// Mailer sends plain-text e-mail.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type mailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
	now  func() time.Time
}

func NewMailer(cfg *config.Config) Mailer {
	m := &mailer{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
		send: smtp.SendMail,
		now:  time.Now,
	}
	if cfg.SMTPUsername != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

func (m *mailer) SendEmail(to, subject, body string) error {
	return m.send(m.addr, m.auth, m.from, []string{to}, compose(m.from, to, subject, body, m.now()))
}

// compose builds a UTF-8 text/plain message. Notification titles are user
// input in any script, so the subject is always RFC 2047 encoded when it
// needs to be, which also keeps CR/LF out of the header block.
func compose(from, to, subject, body string, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(crlf.Replace(body))
	return []byte(b.String())
}

var crlf = strings.NewReplacer("\r\n", "\r\n", "\n", "\r\n")

// ApprovalNotifier e-mails one address whenever something starts waiting for approval.
// A nil notifier or an empty address does nothing.
type ApprovalNotifier struct {
	mailer Mailer
	to     string
}

func NewApprovalNotifier(m Mailer, to string) *ApprovalNotifier {
	return &ApprovalNotifier{mailer: m, to: to}
}

// AwaitingApproval sends in the background; failures are only logged.
func (n *ApprovalNotifier) AwaitingApproval(kind, id, title string) {
	if n == nil || n.to == "" {
		return
	}
	go n.notify(kind, id, title)
}

func (n *ApprovalNotifier) notify(kind, id, title string) {
	subject := fmt.Sprintf("Approval needed: %s", title)
	body := fmt.Sprintf("A %s is awaiting approval.\r\n\r\nTitle: %s\r\nID: %s\r\n", kind, title, id)
	if err := n.mailer.SendEmail(n.to, subject, body); err != nil {
		slog.Warn("could not send approval e-mail", "kind", kind, "id", id, "err", err)
	}
}
