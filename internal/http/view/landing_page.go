package view

import (
	"bytes"
	"html/template"
)

// LandingPageData provides the dynamic fields for the portfolio landing page.
type LandingPageData struct {
	Title       string
	Tagline     string
	CalendlyURL string
}

var landingPageTmpl = template.Must(template.New("landing_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{if .Title}}{{.Title}}{{else}}Portfolio{{end}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			width: min(520px, 92vw);
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		h1 {
			font-size: 1.5rem;
			margin-bottom: 6px;
		}
		p {
			color: var(--muted);
			margin-top: 0;
		}
		.cta {
			display: inline-block;
			margin-top: 24px;
			padding: 12px 22px;
			border-radius: 12px;
			background: var(--accent-strong);
			color: #04121f;
			font-weight: 600;
			text-decoration: none;
		}
		.cta:hover {
			background: var(--accent);
		}
	</style>
</head>
<body>
	<main class="card">
		<h1>{{.Title}}</h1>
		<p>{{.Tagline}}</p>
		{{if .CalendlyURL}}<a class="cta" href="{{.CalendlyURL}}">Book a call</a>{{end}}
	</main>
</body>
</html>
`))

// RenderLandingPage renders the landing page into a string.
func RenderLandingPage(data LandingPageData) (string, error) {
	var buf bytes.Buffer
	if err := landingPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
