package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"assessment-workers/internal/models"
)

const maxEmailRecommendations = 3

var ErrMissingRecipient = errors.New("recipient email is required")

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

const subjectTemplate = `Your AI readiness score: {{.Result.OverallScore}}/100 ({{.Result.MaturityLevel.Name}})`

const textTemplate = `AI Readiness Assessment - {{.Result.SectorName}}

Overall score: {{.Result.OverallScore}}/100
Maturity level: {{.Result.MaturityLevel.Name}}
Grade: {{.Result.Grade}}
{{- if .Result.Benchmark}}
Sector percentile: {{.Result.Benchmark.Percentile}}
{{- end}}

Dimension scores:
{{- range .Result.DimensionScores}}
  - {{.Label}}: {{printf "%.1f" .Score}}
{{- end}}
{{- if .Recommendations}}

Recommended next steps:
{{- range .Recommendations}}
  - {{.}}
{{- end}}
{{- end}}
`

const htmlTemplate = `<html><body>
<h2>AI Readiness Assessment - {{.Result.SectorName}}</h2>
<p><strong>Overall score:</strong> {{.Result.OverallScore}}/100<br>
<strong>Maturity level:</strong> {{.Result.MaturityLevel.Name}}<br>
<strong>Grade:</strong> {{.Result.Grade}}{{if .Result.Benchmark}}<br>
<strong>Sector percentile:</strong> {{.Result.Benchmark.Percentile}}{{end}}</p>
<table>
{{- range .Result.DimensionScores}}
<tr><td>{{.Label}}</td><td>{{printf "%.1f" .Score}}</td></tr>
{{- end}}
</table>
{{- if .Recommendations}}
<h3>Recommended next steps</h3>
<ul>
{{- range .Recommendations}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</body></html>
`

var (
	subjectTmpl = texttemplate.Must(texttemplate.New("subject").Parse(subjectTemplate))
	textTmpl    = texttemplate.Must(texttemplate.New("text").Parse(textTemplate))
	htmlTmpl    = htmltemplate.Must(htmltemplate.New("html").Parse(htmlTemplate))
)

// Email is a rendered summary message.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

type emailData struct {
	Result          models.AssessmentResult
	Recommendations []string
}

// RenderSummary renders the summary email for result.
func RenderSummary(result models.AssessmentResult) (Email, error) {
	data := emailData{Result: result, Recommendations: result.Recommendations}
	if len(data.Recommendations) > maxEmailRecommendations {
		data.Recommendations = data.Recommendations[:maxEmailRecommendations]
	}

	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return Email{}, fmt.Errorf("render subject: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("render text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render html: %w", err)
	}
	return Email{Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}

type Mailer struct {
	ses  SESService
	from string
}

func NewMailer(client SESService, fromEmail string) *Mailer {
	return &Mailer{ses: client, from: fromEmail}
}

// SendSummary emails the result summary to `to` and returns the SES message id.
func (m *Mailer) SendSummary(ctx context.Context, to string, result models.AssessmentResult) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", ErrMissingRecipient
	}

	email, err := RenderSummary(result)
	if err != nil {
		return "", err
	}

	out, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(email.Text), Charset: aws.String("UTF-8")},
				Html: &sestypes.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return "", fmt.Errorf("send summary email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
