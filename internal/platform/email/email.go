package email

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	texttmpl "text/template"
	"time"
)

// Message is a fully rendered email ready for transport.
type Message struct {
	ToName      string
	ToAddr      string
	Subject     string
	TextContent string
	HTMLContent string
}

// Sender delivers one message and reports the outcome. The reminder
// dispatcher needs a per-message result to update its bookkeeping, so
// sending is synchronous.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// ReminderData is the template context for an inactivity reminder.
type ReminderData struct {
	Name           string
	DaysInactive   int
	CurrentRating  int
	MaxRating      int
	ReminderNumber int
	LastActivity   time.Time
}

const reminderSubject = "Keep Up Your Problem Solving Streak!"

var reminderText = texttmpl.Must(texttmpl.New("reminder").Parse(`Hello {{.Name}}!

You haven't solved any problems on Codeforces for {{.DaysInactive}} days.

Your current stats:
  Current rating: {{.CurrentRating}}
  Max rating:     {{.MaxRating}}
  Last activity:  {{.LastActivity.Format "2006-01-02"}}

Don't let your problem-solving skills get rusty. Consistency is the key to
success in competitive programming - set a daily goal of solving at least
one problem.

Start solving: https://codeforces.com/problemset

This is reminder #{{.ReminderNumber}}. You can disable these reminders in
your student profile if needed.

Best regards,
The TLE CodePlus Team
`))

var reminderHTML = htmltmpl.Must(htmltmpl.New("reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>TLE CodePlus</h1>
  <h2>Hello {{.Name}}!</h2>
  <p><strong>You haven't solved any problems on Codeforces for {{.DaysInactive}} days.</strong></p>
  <p>Don't let your problem-solving skills get rusty. Consistency is the key
  to success in competitive programming.</p>
  <h3>Your Current Stats</h3>
  <ul>
    <li>Current rating: <strong>{{.CurrentRating}}</strong></li>
    <li>Max rating: <strong>{{.MaxRating}}</strong></li>
    <li>Last activity: {{.LastActivity.Format "2006-01-02"}}</li>
  </ul>
  <p><a href="https://codeforces.com/problemset">Start solving now!</a></p>
  <p style="color: #64748b; font-size: 14px;">
    This is reminder #{{.ReminderNumber}}. You can disable these reminders
    in your student profile if needed.
  </p>
  <p>Best regards,<br>The TLE CodePlus Team</p>
</body>
</html>
`))

// RenderReminder renders the inactivity reminder templates into a message
// addressed to the given recipient.
func RenderReminder(toName, toAddr string, data ReminderData) (*Message, error) {
	var text, html bytes.Buffer
	if err := reminderText.Execute(&text, data); err != nil {
		return nil, err
	}
	if err := reminderHTML.Execute(&html, data); err != nil {
		return nil, err
	}
	return &Message{
		ToName:      toName,
		ToAddr:      toAddr,
		Subject:     reminderSubject,
		TextContent: text.String(),
		HTMLContent: html.String(),
	}, nil
}
