package portal

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("setup").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width,initial-scale=1"/>
  <title>{{.Title}}</title>
  <style>
    body{font-family:system-ui,Arial;margin:24px;max-width:520px}
    input{width:100%;padding:10px;font-size:16px;margin:8px 0}
    button{padding:10px 14px;font-size:16px}
    .err{margin:10px 0;color:#a00}
    .card{padding:16px;border:1px solid #ddd;border-radius:12px}
  </style>
</head>
<body>
  <h2>{{.Title}}</h2>
  <div class="card">
    {{if .Error}}<div class="err">{{.Error}}</div>{{end}}
    <form method="POST" action="/save">
      <label>SSID</label>
      <input name="ssid" placeholder="WiFi name" value="{{.NetworkName}}" required>
      <label>Password</label>
      <input name="password" type="password" placeholder="WiFi password">
      <button type="submit">Save &amp; Connect</button>
    </form>
  </div>
</body>
</html>
`))

type pageData struct {
	Title       string
	NetworkName string
	Error       string
}

// renderPage renders the credential form. The template escapes every field.
func renderPage(title, networkName, errMsg string) string {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{
		Title:       title,
		NetworkName: networkName,
		Error:       errMsg,
	}); err != nil {
		// Only a template bug can get here; the form stays usable without the prefill
		return "<!doctype html><p>Setup page unavailable</p>"
	}
	return buf.String()
}
