package email

import (
	"encoding/base64"
	"fmt"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"riceguard/models"
)

// Sender delivers severe-detection alerts through SendGrid. All sends
// are best-effort: a delivery failure is logged and never surfaced to
// the detect request.
type Sender struct {
	apiKey     string
	fromName   string
	fromEmail  string
	recipients []string
}

// NewSender creates a sender. With an empty API key or recipient list
// every send becomes a no-op.
func NewSender(apiKey, fromName, fromEmail string, recipients []string) *Sender {
	return &Sender{
		apiKey:     apiKey,
		fromName:   fromName,
		fromEmail:  fromEmail,
		recipients: recipients,
	}
}

// Enabled reports whether alerts are configured.
func (s *Sender) Enabled() bool {
	return s.apiKey != "" && len(s.recipients) > 0
}

// SendSevereAlert emails the detection summary with the annotated image
// attached inline.
func (s *Sender) SendSevereAlert(det *models.DetectionResult, annotatedImage []byte) {
	if !s.Enabled() {
		return
	}
	log.Infof("Sending severe detection alert to %d recipients", len(s.recipients))
	for _, r := range s.recipients {
		if err := s.sendOne(r, det, annotatedImage); err != nil {
			log.Warnf("Error sending alert email to %s: %v", r, err)
		}
	}
}

func (s *Sender) sendOne(recipient string, det *models.DetectionResult, annotatedImage []byte) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(recipient, recipient)
	subject := fmt.Sprintf("RiceGuard alert: %s (%s)", det.Disease, det.Severity)

	plain := fmt.Sprintf(
		"%s\n\nConfidence: %.2f%%\nLesion count: %d\nDetected at: %s\n\nRecommended treatment:\n- %s\n",
		det.Description, det.Confidence, det.LesionCount, det.Timestamp,
		joinLines(det.Treatment))
	html := fmt.Sprintf(
		"<h2>%s</h2><p>Confidence: %.2f%%<br>Lesion count: %d<br>Detected at: %s</p>",
		det.Description, det.Confidence, det.LesionCount, det.Timestamp)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	p := mail.NewPersonalization()
	p.AddTos(to)
	message.AddPersonalizations(p)

	message.AddContent(mail.NewContent("text/plain", plain))
	message.AddContent(mail.NewContent("text/html", html))

	if len(annotatedImage) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(annotatedImage))
		attachment.SetType("image/png")
		attachment.SetFilename("detection.png")
		attachment.SetDisposition("inline")
		message.AddAttachment(attachment)
	}

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

func joinLines(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "\n- "
		}
		out += item
	}
	return out
}
