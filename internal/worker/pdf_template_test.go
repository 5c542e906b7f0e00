package worker

import (
	"encoding/json"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"mboajobs/internal/database"
	"mboajobs/internal/resume"
)

func resumeRow(t *testing.T, layout string, content resume.Data, style *resume.Style) *database.Resume {
	t.Helper()
	contentJSON, err := json.Marshal(&content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	row := &database.Resume{
		Title:   "Test CV",
		Layout:  layout,
		Content: datatypes.JSON(contentJSON),
	}
	if style != nil {
		styleJSON, err := json.Marshal(style)
		if err != nil {
			t.Fatalf("marshal style: %v", err)
		}
		row.Style = datatypes.JSON(styleJSON)
	}
	return row
}

func sampleContent() resume.Data {
	return resume.Data{
		Personal: resume.Personal{
			FullName: "Alice Dupont",
			Title:    "Designer",
			Email:    "a@x.com",
			Location: "Douala",
		},
		Experiences: []resume.ExperienceItem{
			{
				ID:        "exp-1",
				Company:   "Mboa Tech",
				Position:  "Designer",
				StartDate: "2021-02-01",
				Current:   true,
			},
		},
		Skills: []resume.SkillItem{
			{ID: "s-1", Name: "Figma", Category: "Technical", Level: 4},
		},
	}
}

func TestRenderResumeHTML_ContainsProfileData(t *testing.T) {
	row := resumeRow(t, resume.LayoutModern, sampleContent(), nil)

	html, err := RenderResumeHTML(row)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Alice Dupont", "Designer", "Mboa Tech", "Figma"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered html missing %q", want)
		}
	}
}

func TestRenderResumeHTML_UsesStyleSnapshot(t *testing.T) {
	style := resume.Style{
		Colors: resume.StyleColors{
			Primary:    "#123456",
			Secondary:  "#654321",
			Background: "#ffffff",
			Text:       "#000000",
		},
		Fonts:   resume.StyleFonts{Headings: "Georgia", Body: "Georgia"},
		Spacing: resume.StyleSpacing{Section: 24, Item: 12},
	}
	row := resumeRow(t, resume.LayoutClassic, sampleContent(), &style)

	html, err := RenderResumeHTML(row)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(html, "#123456") {
		t.Fatal("rendered html does not use the snapshot primary color")
	}
	if !strings.Contains(html, "Georgia") {
		t.Fatal("rendered html does not use the snapshot font")
	}
}

func TestRenderResumeHTML_FallsBackToLayoutDefaults(t *testing.T) {
	row := resumeRow(t, resume.LayoutCreative, sampleContent(), nil)

	html, err := RenderResumeHTML(row)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// creative 布局的内置主色。
	if !strings.Contains(html, "#7c3aed") {
		t.Fatal("expected creative default primary color")
	}
}

func TestRenderResumeHTML_RejectsMalformedContent(t *testing.T) {
	row := &database.Resume{
		Layout:  resume.LayoutModern,
		Content: datatypes.JSON(`{"personal":`),
	}
	if _, err := RenderResumeHTML(row); err == nil {
		t.Fatal("expected error for malformed content")
	}
}
