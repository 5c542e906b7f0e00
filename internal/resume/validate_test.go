package resume

import (
	"errors"
	"testing"
)

func TestCheckDateOrder(t *testing.T) {
	cases := []struct {
		name      string
		start     string
		end       string
		wantField string
	}{
		{name: "both empty", start: "", end: ""},
		{name: "ongoing", start: "2020-01-01", end: ""},
		{name: "ordered", start: "2020-01-01", end: "2021-01-01"},
		{name: "same day", start: "2020-01-01", end: "2020-01-01"},
		{name: "reversed", start: "2021-01-01", end: "2020-01-01", wantField: "x.endDate"},
		{name: "bad start", start: "01/01/2020", end: "2021-01-01", wantField: "x.startDate"},
		{name: "bad end", start: "2020-01-01", end: "demain", wantField: "x.endDate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkDateOrder("x", tc.start, tc.end)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.wantField {
				t.Fatalf("field: got %q want %q", vErr.Field, tc.wantField)
			}
		})
	}
}

func TestValidate_CertificationDate(t *testing.T) {
	cases := []struct {
		name      string
		date      string
		wantField string
	}{
		{name: "empty date", date: ""},
		{name: "well formed", date: "2023-06-15"},
		{name: "bad format", date: "15/06/2023", wantField: "certifications[0].date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := minimalContent()
			content.Certifications = []CertificationItem{
				{ID: "c-1", Name: "AWS SAA", Issuer: "Amazon", Date: tc.date},
			}

			err := Validate(&content)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.wantField {
				t.Fatalf("field: got %q want %q", vErr.Field, tc.wantField)
			}
		})
	}
}

func TestValidLayoutAndSection(t *testing.T) {
	for _, layout := range []string{"modern", "classic", "creative", "minimalist"} {
		if !ValidLayout(layout) {
			t.Fatalf("layout %q should be valid", layout)
		}
	}
	if ValidLayout("brutalist") {
		t.Fatal("unknown layout accepted")
	}
	for _, section := range []string{"personal", "experience", "education", "skills", "projects", "languages", "certifications"} {
		if !ValidSection(section) {
			t.Fatalf("section %q should be valid", section)
		}
	}
	if ValidSection("hobbies") {
		t.Fatal("unknown section accepted")
	}
}
