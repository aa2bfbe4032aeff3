package view

import (
	"bytes"
	"html/template"
)

// UnavailablePageData provides the fields for the "link gone" template.
type UnavailablePageData struct {
	Code    string
	Message string
}

var unavailablePageTmpl = template.Must(template.New("unavailable_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Link unavailable</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
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
		}
		h1 { font-size: 1.5rem; margin-bottom: 6px; }
		p { color: var(--muted); margin-top: 0; }
		.code {
			display: inline-block;
			margin-top: 12px;
			padding: 6px 12px;
			border-radius: 10px;
			background: rgba(255, 255, 255, 0.08);
			font-family: ui-monospace, monospace;
		}
	</style>
</head>
<body>
	<div class="card">
		<h1>This link is no longer available</h1>
		<p>{{.Message}}</p>
		<span class="code">{{.Code}}</span>
	</div>
</body>
</html>
`))

// RenderUnavailablePage produces the HTML shown for expired or exhausted links.
func RenderUnavailablePage(data UnavailablePageData) (string, error) {
	if data.Message == "" {
		data.Message = "The short link has expired or reached its click limit."
	}

	var buf bytes.Buffer
	if err := unavailablePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
