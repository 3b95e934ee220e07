package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"rewear/internal/config"
	"rewear/internal/models"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mailer delivers out-of-band messages. Implementations must not block the
// caller on network I/O.
type Mailer interface {
	SendExchangeContacts(itemTitle string, requester, owner models.Contact)
}

var contactTemplate = template.Must(template.New("contact").Parse(`<p>Hi {{.To.Name}},</p>
<p>Your exchange for <strong>{{.Item}}</strong> went through. You can reach
{{.Other.Name}} at <a href="mailto:{{.Other.Email}}">{{.Other.Email}}</a>{{if .Other.Location}} ({{.Other.Location}}){{end}}
to arrange the handover.</p>
<p>Happy swapping,<br>ReWear</p>`))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailService struct {
	cfg  config.SMTPConfig
	log  logrus.FieldLogger
	send sendFunc
	wg   sync.WaitGroup
}

func NewMailService(cfg config.SMTPConfig, log logrus.FieldLogger) *MailService {
	if !cfg.Enabled() {
		log.Warn("MailService disabled: missing SMTP settings")
	}
	return &MailService{cfg: cfg, log: log, send: smtp.SendMail}
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.cfg.Enabled() {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: ReWear <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))

		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			s.log.WithError(err).WithField("to", to).Error("Failed to send email")
			return
		}
		s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email sent")
	}()
}

// Wait blocks until queued messages are handed to the SMTP server.
func (s *MailService) Wait() {
	s.wg.Wait()
}

// SendExchangeContacts tells each party how to reach the other.
func (s *MailService) SendExchangeContacts(itemTitle string, requester, owner models.Contact) {
	for _, pair := range [][2]models.Contact{{requester, owner}, {owner, requester}} {
		var buf bytes.Buffer
		err := contactTemplate.Execute(&buf, map[string]interface{}{
			"To":    pair[0],
			"Other": pair[1],
			"Item":  itemTitle,
		})
		if err != nil {
			s.log.WithError(err).Error("Error rendering contact email")
			return
		}
		s.sendAsync([]string{pair[0].Email}, "Your ReWear exchange: "+itemTitle, buf.String())
	}
}
