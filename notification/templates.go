package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

//go:embed templates
var templates embed.FS

var funcs = map[string]any{
	"date": func(t time.Time) string { return t.Format("02 Jan 2006") },
	"datetime": func(t time.Time) string {
		return t.Format("02 Jan 2006, 15:04 MST")
	},
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).ParseFS(templates, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.New("text").Funcs(funcs).ParseFS(templates, "templates/*.txt.tmpl"))
)

type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
}

func RenderStudentEnrollment(p Payload) (Message, error) {
	return render(p, "student-enrollment", fmt.Sprintf("Welcome to %s! Complete your enrollment", p.Course))
}

func RenderAdminEnrollment(p Payload) (Message, error) {
	return render(p, "admin-enrollment", fmt.Sprintf("New course enrollment: %s", p.Name))
}

func RenderStudentPayment(p Payload) (Message, error) {
	return render(p, "student-payment", fmt.Sprintf("Payment confirmed - welcome to %s!", p.Course))
}

func RenderAdminPayment(p Payload) (Message, error) {
	return render(p, "admin-payment", fmt.Sprintf("Payment received: %s (%s)", p.Name, p.PaymentID))
}

// renderPair picks the lifecycle variant for the student and the admin.
func renderPair(p Payload) (student Message, admin Message, err error) {
	studentRender, adminRender := RenderStudentEnrollment, RenderAdminEnrollment
	if p.IsPaymentConfirmation() {
		studentRender, adminRender = RenderStudentPayment, RenderAdminPayment
	}

	student, err = studentRender(p)
	if err != nil {
		return Message{}, Message{}, err
	}
	admin, err = adminRender(p)
	if err != nil {
		return Message{}, Message{}, err
	}
	return student, admin, nil
}

func render(p Payload, name string, subject string) (Message, error) {
	var htmlBuf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, name+".html.tmpl", p); err != nil {
		return Message{}, fmt.Errorf("failed to execute email template %q: %w", name, err)
	}

	var textBuf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&textBuf, name+".txt.tmpl", p); err != nil {
		return Message{}, fmt.Errorf("failed to execute text email template %q: %w", name, err)
	}

	return Message{
		Subject:  subject,
		HTMLBody: htmlBuf.String(),
		TextBody: textBuf.String(),
	}, nil
}
