package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/siddha-avenue/salesops/internal/kpi"
)

// Renderer converts HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, filename string, html []byte) ([]byte, error)
}

// PDFExporter renders reports through a Renderer.
type PDFExporter struct {
	renderer Renderer
}

// NewPDFExporter wraps renderer.
func NewPDFExporter(renderer Renderer) *PDFExporter {
	return &PDFExporter{renderer: renderer}
}

// RenderReport builds the report HTML and converts it.
func (p *PDFExporter) RenderReport(ctx context.Context, report kpi.Report) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, fmt.Errorf("export: pdf renderer not configured")
	}
	html, err := BuildHTML(report)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderHTML(ctx, Filename(report, "pdf"), html)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:24px;font-size:11px;}
h1{font-size:18px;margin-bottom:4px;}
p.meta{color:#555;margin-top:0;}
table{width:100%;border-collapse:collapse;}
th,td{border:1px solid #ddd;padding:4px 6px;text-align:right;}
th{background:#f5f5f5;}
td.label,th.label{text-align:left;}
tr.total td{font-weight:bold;background:#fafafa;}
</style></head><body>
<h1>{{.Title}}</h1>
<p class="meta">{{.Period.CurrentStart}} to {{.Period.CurrentEnd}} vs {{.Period.ComparatorStart}} to {{.Period.ComparatorEnd}} &middot; {{.SalesType}}{{if .Entity}} &middot; {{.Entity}}{{end}}</p>
<table><thead><tr>{{range $i, $c := .Columns}}<th{{if eq $i 0}} class="label"{{end}}>{{$c}}</th>{{end}}</tr></thead>
<tbody>{{range $r, $cells := .Rows}}<tr{{if eq $r 0}} class="total"{{end}}>{{range $i, $v := $cells}}<td{{if eq $i 0}} class="label"{{end}}>{{$v}}</td>{{end}}</tr>
{{end}}</tbody></table>
</body></html>`))

type htmlView struct {
	Title     string
	Period    kpi.PeriodSummary
	SalesType string
	Entity    string
	Columns   []string
	Rows      [][]string
}

// BuildHTML renders the printable page for report.
func BuildHTML(report kpi.Report) ([]byte, error) {
	view := htmlView{
		Title:     fmt.Sprintf("%s report by %s (%s)", valueTitle(report.ValueKind), firstColumn(report), report.Period.Format),
		Period:    report.Period,
		SalesType: report.SalesType,
		Entity:    report.Entity,
		Columns:   report.Columns,
	}
	for _, row := range report.Rows {
		view.Rows = append(view.Rows, row.Cells())
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("export: render html: %w", err)
	}
	return buf.Bytes(), nil
}

func firstColumn(report kpi.Report) string {
	if len(report.Columns) == 0 {
		return string(report.Dimension)
	}
	return report.Columns[0]
}

func valueTitle(kind kpi.ValueKind) string {
	if kind == kpi.ValueKindVolume {
		return "Volume"
	}
	return "Value"
}
