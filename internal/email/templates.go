package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

const (
	TemplateWelcome             = "welcome"
	TemplateBookingConfirmed    = "booking_confirmed"
	TemplateBookingCancelled    = "booking_cancelled"
	TemplateExtensionRequested  = "extension_requested"
	TemplateExtensionResponded  = "extension_responded"
	TemplateGymApproved         = "gym_approved"
	TemplateGymNeedsResubmit    = "gym_resubmission"
	TemplateGymOnboardingQueued = "gym_onboarding_received"
)

// Bodies are markdown; params are substituted before rendering to HTML.
var templateSources = map[string]struct{ subject, body string }{
	TemplateWelcome: {
		subject: "Welcome to {{.platform}}",
		body: `Hi {{.name}},

Welcome to **{{.platform}}**. Find a gym near you and book your first session.`,
	},
	TemplateBookingConfirmed: {
		subject: "Booking confirmed at {{.gym}}",
		body: `Hi {{.name}},

Your session is booked.

- **Gym:** {{.gym}}
- **Date:** {{.date}}
- **Time:** {{.from}} to {{.to}}
- **Price:** {{.price}}

Booking reference: {{.booking_id}}`,
	},
	TemplateBookingCancelled: {
		subject: "Booking cancelled at {{.gym}}",
		body: `Hi {{.name}},

Your session at **{{.gym}}** on {{.date}} ({{.from}} to {{.to}}) has been cancelled.`,
	},
	TemplateExtensionRequested: {
		subject: "Extension requested at {{.gym}}",
		body: `Hi {{.name}},

{{.customer}} asked to extend their session on {{.date}} ({{.from}} to {{.to}}) by **{{.duration}} minutes**.

Review it from your dashboard.`,
	},
	TemplateExtensionResponded: {
		subject: "Your extension was {{.decision}}",
		body: `Hi {{.name}},

Your {{.duration}} minute extension for the session at **{{.gym}}** on {{.date}} was **{{.decision}}**.
{{if .price}}
New total: {{.price}}{{end}}`,
	},
	TemplateGymApproved: {
		subject: "{{.gym}} is live on {{.platform}}",
		body: `Hi {{.name}},

**{{.gym}}** has been approved and is now visible to customers.`,
	},
	TemplateGymNeedsResubmit: {
		subject: "{{.gym}} needs changes",
		body: `Hi {{.name}},

We could not approve **{{.gym}}** yet. Please address the following and resubmit:

{{range .reasons}}- {{.}}
{{end}}`,
	},
	TemplateGymOnboardingQueued: {
		subject: "We received {{.gym}}",
		body: `Hi {{.name}},

Thanks for listing **{{.gym}}**. Our team will review it shortly.`,
	},
}

var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

type compiledTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = mustCompile()

func mustCompile() map[string]compiledTemplate {
	out := make(map[string]compiledTemplate, len(templateSources))
	for name, src := range templateSources {
		out[name] = compiledTemplate{
			subject: template.Must(template.New(name + ".subject").Option("missingkey=zero").Parse(src.subject)),
			body:    template.Must(template.New(name + ".body").Option("missingkey=zero").Parse(src.body)),
		}
	}
	return out
}

// Render produces the subject line and HTML body for a named template.
func Render(name string, params map[string]any) (subject, html string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var sb, md, out bytes.Buffer
	if err := tpl.subject.Execute(&sb, params); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	if err := tpl.body.Execute(&md, params); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	if err := mdRenderer.Convert(md.Bytes(), &out); err != nil {
		return "", "", fmt.Errorf("markdown %s: %w", name, err)
	}

	return strings.TrimSpace(sb.String()), out.String(), nil
}
