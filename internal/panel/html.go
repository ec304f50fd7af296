package panel

import (
	"html/template"
	"io"
	"math"
)

var htmlTmpl = template.Must(template.New("panel").Funcs(template.FuncMap{
	"round": func(f float64) int { return int(math.Round(f)) },
}).Parse(`<aside class="toc" data-progress="{{.Progress.Percent}}">
<h3 class="toc-title">On This Page</h3>
<div class="toc-progress">
<div class="toc-progress-head"><span>Reading Progress</span><span>{{round .Progress.Percent}}%</span></div>
<div class="toc-bar"><div class="toc-bar-fill" style="width: {{.Progress.Percent}}%"></div></div>
<div class="toc-count">{{.Progress.Label}}</div>
</div>
<nav class="toc-entries">
{{- range .Entries}}
<a href="#{{.ID}}" class="toc-entry toc-{{.State}}" data-section="{{.ID}}">{{if eq .State "passed"}}<span class="toc-check">✓</span> {{end}}{{.Text}}</a>
{{- end}}
</nav>
</aside>
`))

// RenderHTML writes the panel markup. An empty view writes nothing. Entries
// carry data-section so a click handler can ask the navigator to scroll.
func RenderHTML(w io.Writer, v View) error {
	if v.Empty() {
		return nil
	}
	return htmlTmpl.Execute(w, v)
}
