package mailer

// Client defines an interface for sending HTML email.
// This keeps the application logic decoupled from the concrete provider;
// callers treat delivery as best-effort and only ever log send failures.
type Client interface {
	Send(to []string, subject, htmlBody string) error
}
