package email

import (
	"context"
	"fmt"
	"net/http"

	"cptracker/internal/common"
	"cptracker/internal/platform/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key  string
	from *sgmail.Email
}

var _ Sender = (*sendgridSender)(nil)

func NewSendgridSender() Sender {
	return &sendgridSender{
		key:  config.AppConfig.SendgridAPIKey,
		from: sgmail.NewEmail(config.AppConfig.EmailFromName, config.AppConfig.EmailFromAddr),
	}
}

func (s *sendgridSender) Send(ctx context.Context, msg *Message) error {
	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddr))
	m.AddPersonalizations(p)

	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %v: %w", msg.ToAddr, err, common.ErrSendFailure)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send to %s: status %d: %w", msg.ToAddr, res.StatusCode, common.ErrSendFailure)
	}
	return nil
}
