package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"slotbook/internal/models"
)

const textBody = `Hi {{.Name}},

Your booking on {{.SlotDate}} at {{.SlotTime}} has been {{.Verb}}!
Booking ID: {{.OrderID}}

Thank you for using our service.

Booking System
`

const htmlBody = `<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2 style="color: {{.Color}};">Booking {{.Status}}!</h2>
  <p>Hi <strong>{{.Name}}</strong>,</p>
  <p>Your booking on <strong>{{.SlotDate}}</strong> at <strong>{{.SlotTime}}</strong> has been
    <span style="color: {{.Color}}; font-weight: bold;">{{.Verb}}</span>.</p>
  <p><strong>Booking ID:</strong> {{.OrderID}}</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p>Thank you for using our service.</p>
  <p style="font-size: 0.9em; color: #666;">Booking System</p>
</div>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

type message struct {
	Subject string
	Text    string
	HTML    string
}

type view struct {
	models.Notification
	Verb  string
	Color string
}

func render(n models.Notification) (message, error) {
	v := view{Notification: n, Verb: strings.ToLower(n.Status), Color: "#f44336"}
	if n.Status == models.NotifyConfirmed {
		v.Color = "#4CAF50"
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return message{}, fmt.Errorf("render html body: %w", err)
	}

	return message{
		Subject: fmt.Sprintf("Booking %s - %s at %s", n.Status, n.SlotDate, n.SlotTime),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
