package flows

import (
	"log/slog"

	"github.com/kuitang/site-e2e/internal/logutil"
)

// ContactForm is the data entered into the home page "Let's connect" form.
type ContactForm struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Company       string `json:"company"`
	JobTitle      string `json:"job_title"`
	Service       string `json:"service"`
	Message       string `json:"message"`
}

// LogValue implements slog.LogValuer so forms never reach logs unredacted.
func (f ContactForm) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", logutil.RedactFormValue("name", f.Name)),
		slog.String("email", logutil.RedactFormValue("email", f.Email)),
		slog.String("contact_number", logutil.RedactFormValue("contact_number", f.ContactNumber)),
		slog.String("company", f.Company),
		slog.String("job_title", f.JobTitle),
		slog.String("service", f.Service),
		slog.String("message", logutil.TruncateForLog(f.Message, 40)),
	)
}
