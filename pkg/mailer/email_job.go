package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either a Template with Data, or a raw Subject with Text/HTML bodies.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "verify_otp", "reset_password", "welcome"
	Data     map[string]any `json:"data,omitempty"`
}
