package graphing

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`
<div class="summary">
  <h1>{{.Title}}</h1>
  <table>
    <tr><td>Records</td><td>{{.Records}}</td></tr>
    <tr><td>Pipelines</td><td>{{.Pipelines}}</td></tr>
    <tr><td>Failed</td><td>{{.Failed}}</td></tr>
    {{if .First}}<tr><td>First</td><td>{{.First}}</td></tr>{{end}}
    {{if .Last}}<tr><td>Last</td><td>{{.Last}}</td></tr>{{end}}
    {{if .Span}}<tr><td>Span</td><td>{{.Span}}</td></tr>{{end}}
  </table>
</div>
`))

const summaryCSS = `<style>
.summary { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; margin: 20px; }
.summary h1 { font-size: 18px; border-bottom: 2px solid #333; padding-bottom: 10px; }
.summary td { padding: 2px 12px 2px 0; font-size: 13px; }
.summary td:first-child { color: #666; }
</style>
`

func renderSummary(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, s); err != nil {
		return "", errors.Wrap(err, "execute summary template")
	}
	return buf.String(), nil
}
