package worker

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"mboajobs/internal/database"
	"mboajobs/internal/resume"
)

// renderContext 是 HTML 模板的数据根。
type renderContext struct {
	Layout  string
	Content resume.Data
	Style   resume.Style
}

// defaultStyleFor 返回各布局的内置样式，简历行未携带样式快照时使用。
func defaultStyleFor(layout string) resume.Style {
	style := resume.Style{
		Colors: resume.StyleColors{
			Primary:    "#1f2937",
			Secondary:  "#4b5563",
			Background: "#ffffff",
			Text:       "#111827",
		},
		Fonts:   resume.StyleFonts{Headings: "Helvetica", Body: "Helvetica"},
		Spacing: resume.StyleSpacing{Section: 20, Item: 10},
	}
	switch layout {
	case resume.LayoutClassic:
		style.Fonts = resume.StyleFonts{Headings: "Georgia", Body: "Georgia"}
	case resume.LayoutCreative:
		style.Colors.Primary = "#7c3aed"
		style.Colors.Accent = "#f59e0b"
	case resume.LayoutMinimalist:
		style.Colors.Secondary = "#9ca3af"
		style.Spacing = resume.StyleSpacing{Section: 28, Item: 14}
	}
	return style
}

// RenderResumeHTML 把简历行渲染为待打印的 HTML 文档。
// 样式来自行上的快照；没有快照时回退到布局的内置样式。
func RenderResumeHTML(row *database.Resume) (string, error) {
	var content resume.Data
	if err := json.Unmarshal(row.Content, &content); err != nil {
		return "", fmt.Errorf("decode resume content: %w", err)
	}
	content.Normalize()

	style := defaultStyleFor(row.Layout)
	if len(row.Style) > 0 {
		if err := json.Unmarshal(row.Style, &style); err != nil {
			return "", fmt.Errorf("decode resume style: %w", err)
		}
	}
	if style.Colors.Accent == "" {
		style.Colors.Accent = style.Colors.Primary
	}

	var buf strings.Builder
	err := resumeTemplate.Execute(&buf, renderContext{
		Layout:  row.Layout,
		Content: content,
		Style:   style,
	})
	if err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}
	return buf.String(), nil
}

var resumeTemplate = template.Must(template.New("resume").Parse(resumeTemplateString))

// resumeTemplateString 按固定章节顺序渲染文档，布局标签决定整体观感：
// modern 左侧强调线、classic 居中衬线头部、creative 色块头部、minimalist 留白。
const resumeTemplateString = `
<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
    @page { size: A4; margin: 0; }
    body {
        margin: 0;
        padding: 48px 56px;
        background: {{.Style.Colors.Background}};
        color: {{.Style.Colors.Text}};
        font-family: '{{.Style.Fonts.Body}}', sans-serif;
        font-size: 10.5pt;
        line-height: 1.45;
    }
    h1, h2, h3 { font-family: '{{.Style.Fonts.Headings}}', sans-serif; margin: 0; }
    h1 { font-size: 22pt; color: {{.Style.Colors.Primary}}; }
    h2 {
        font-size: 12pt;
        color: {{.Style.Colors.Primary}};
        text-transform: uppercase;
        letter-spacing: 1px;
        margin-bottom: 8px;
    }
    .headline { font-size: 12pt; color: {{.Style.Colors.Secondary}}; margin-top: 2px; }
    .contact { color: {{.Style.Colors.Secondary}}; font-size: 9.5pt; margin-top: 6px; }
    .section { margin-top: {{.Style.Spacing.Section}}px; }
    .item { margin-bottom: {{.Style.Spacing.Item}}px; }
    .item-head { display: flex; justify-content: space-between; }
    .item-title { font-weight: bold; }
    .item-where { color: {{.Style.Colors.Secondary}}; }
    .item-dates { color: {{.Style.Colors.Secondary}}; font-size: 9pt; white-space: nowrap; }
    .tags span {
        display: inline-block;
        border: 1px solid {{.Style.Colors.Secondary}};
        border-radius: 3px;
        padding: 1px 6px;
        margin: 0 4px 4px 0;
        font-size: 8.5pt;
    }
    {{if eq .Layout "modern"}}
    .header { border-left: 5px solid {{.Style.Colors.Accent}}; padding-left: 16px; }
    {{else if eq .Layout "classic"}}
    .header { text-align: center; border-bottom: 2px solid {{.Style.Colors.Primary}}; padding-bottom: 12px; }
    {{else if eq .Layout "creative"}}
    .header {
        background: {{.Style.Colors.Primary}};
        padding: 20px;
        margin: -48px -56px 0 -56px;
        padding-left: 56px;
        padding-right: 56px;
    }
    .header h1, .header .headline, .header .contact { color: {{.Style.Colors.Background}}; }
    {{else}}
    .header { padding-bottom: 8px; }
    h2 { text-transform: none; letter-spacing: 0; border-bottom: 1px solid {{.Style.Colors.Secondary}}; }
    {{end}}
</style>
</head>
<body>
    <div class="header">
        <h1>{{.Content.Personal.FullName}}</h1>
        {{if .Content.Personal.Title}}<div class="headline">{{.Content.Personal.Title}}</div>{{end}}
        <div class="contact">
            {{.Content.Personal.Email}}
            {{if .Content.Personal.Phone}} · {{.Content.Personal.Phone}}{{end}}
            {{if .Content.Personal.Location}} · {{.Content.Personal.Location}}{{end}}
            {{range $label, $url := .Content.Personal.Links}} · {{$label}}: {{$url}}{{end}}
        </div>
    </div>

    {{if .Content.Personal.Summary}}
    <div class="section">
        <h2>Profil</h2>
        <div>{{.Content.Personal.Summary}}</div>
    </div>
    {{end}}

    {{if .Content.Experiences}}
    <div class="section">
        <h2>Expérience</h2>
        {{range .Content.Experiences}}
        <div class="item">
            <div class="item-head">
                <div>
                    <span class="item-title">{{.Position}}</span>
                    {{if .Company}}<span class="item-where"> — {{.Company}}</span>{{end}}
                </div>
                <div class="item-dates">{{.StartDate}}{{if .Current}} – aujourd'hui{{else if .EndDate}} – {{.EndDate}}{{end}}</div>
            </div>
            {{if .Description}}<div>{{.Description}}</div>{{end}}
            {{if .Skills}}<div class="tags">{{range .Skills}}<span>{{.}}</span>{{end}}</div>{{end}}
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .Content.Education}}
    <div class="section">
        <h2>Formation</h2>
        {{range .Content.Education}}
        <div class="item">
            <div class="item-head">
                <div>
                    <span class="item-title">{{.School}}</span>
                    {{if .Degree}}<span class="item-where"> — {{.Degree}}{{if .Field}}, {{.Field}}{{end}}</span>{{end}}
                </div>
                <div class="item-dates">{{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}}</div>
            </div>
            {{if .Description}}<div>{{.Description}}</div>{{end}}
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .Content.Skills}}
    <div class="section">
        <h2>Compétences</h2>
        <div class="tags">
            {{range .Content.Skills}}<span>{{.Name}} ({{.Level}}/5)</span>{{end}}
        </div>
    </div>
    {{end}}

    {{if .Content.Projects}}
    <div class="section">
        <h2>Projets</h2>
        {{range .Content.Projects}}
        <div class="item">
            <div class="item-head">
                <div><span class="item-title">{{.Name}}</span></div>
                {{if .StartDate}}<div class="item-dates">{{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}}</div>{{end}}
            </div>
            {{if .Description}}<div>{{.Description}}</div>{{end}}
            {{if .Technologies}}<div class="tags">{{range .Technologies}}<span>{{.}}</span>{{end}}</div>{{end}}
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .Content.Languages}}
    <div class="section">
        <h2>Langues</h2>
        <div class="tags">
            {{range .Content.Languages}}<span>{{.Name}} — {{.Level}}</span>{{end}}
        </div>
    </div>
    {{end}}

    {{if .Content.Certifications}}
    <div class="section">
        <h2>Certifications</h2>
        {{range .Content.Certifications}}
        <div class="item">
            <div class="item-head">
                <div><span class="item-title">{{.Name}}</span>{{if .Issuer}}<span class="item-where"> — {{.Issuer}}</span>{{end}}</div>
                {{if .Date}}<div class="item-dates">{{.Date}}</div>{{end}}
            </div>
        </div>
        {{end}}
    </div>
    {{end}}
</body>
</html>
`
