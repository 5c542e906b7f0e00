package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mboajobs/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCandidate(t *testing.T, db *gorm.DB, name, email string) *database.Candidate {
	t.Helper()
	user := database.User{Email: email, Name: name, Role: database.RoleCandidate}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	candidate := database.Candidate{UserID: user.ID, User: user}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return &candidate
}

func minimalContent() Data {
	return Data{
		Personal: Personal{
			FullName: "Alice Dupont",
			Title:    "Designer",
			Email:    "a@x.com",
			Phone:    "",
			Location: "Douala",
			Summary:  "",
			Links:    map[string]string{},
		},
	}
}

func countPrimaries(t *testing.T, db *gorm.DB, candidateID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&database.Resume{}).
		Where("candidate_id = ? AND is_primary = ?", candidateID, true).
		Count(&count).Error; err != nil {
		t.Fatalf("count primaries: %v", err)
	}
	return count
}

func TestCreate_MinimalContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice Dupont", "a@x.com")

	row, err := svc.Create(context.Background(), candidate.ID, CreateInput{
		Title:   "Mon CV",
		Content: minimalContent(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if row.IsPrimary {
		t.Fatal("new resume must not be primary")
	}
	if row.IsPublic {
		t.Fatal("new resume must not be public")
	}
	if row.Layout != "modern" {
		t.Fatalf("layout default: got %q want %q", row.Layout, "modern")
	}

	var decoded Data
	if err := json.Unmarshal(row.Content, &decoded); err != nil {
		t.Fatalf("decode stored content: %v", err)
	}
	if decoded.Personal.FullName != "Alice Dupont" {
		t.Fatalf("fullName: got %q", decoded.Personal.FullName)
	}
	if decoded.Projects == nil || decoded.Languages == nil || decoded.Certifications == nil {
		t.Fatal("empty sections must round-trip as [], not null")
	}
}

func TestCreate_MissingEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice Dupont", "a@x.com")

	content := minimalContent()
	content.Personal.Email = ""

	_, err := svc.Create(context.Background(), candidate.ID, CreateInput{Title: "CV", Content: content})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "personal.email" {
		t.Fatalf("field path: got %q want %q", vErr.Field, "personal.email")
	}
}

func TestCreate_SkillLevelOutOfRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")

	content := minimalContent()
	content.Skills = []SkillItem{
		{ID: "s1", Name: "Go", Category: "Technical", Level: 4},
		{ID: "s2", Name: "Rust", Category: "Technical", Level: 6},
	}

	_, err := svc.Create(context.Background(), candidate.ID, CreateInput{Title: "CV", Content: content})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "skills[1].level" {
		t.Fatalf("field path: got %q", vErr.Field)
	}
}

func TestCreate_EndBeforeStart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")

	content := minimalContent()
	content.Experiences = []ExperienceItem{{
		ID:        "e1",
		Company:   "Kiroo",
		Position:  "Dev",
		StartDate: "2023-05-01",
		EndDate:   "2022-01-01",
	}}

	_, err := svc.Create(context.Background(), candidate.ID, CreateInput{Title: "CV", Content: content})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "experiences[0].endDate" {
		t.Fatalf("field path: got %q", vErr.Field)
	}
}

func TestCreate_UnknownCandidate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Create(context.Background(), 999, CreateInput{Title: "CV", Content: minimalContent()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")

	row, err := svc.Create(context.Background(), candidate.ID, CreateInput{Title: "Avant", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Après"
	isPublic := true
	updated, err := svc.Update(context.Background(), row.ID, candidate.ID, UpdatePatch{
		Title:    &title,
		IsPublic: &isPublic,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Après" || !updated.IsPublic {
		t.Fatalf("update not applied: title=%q isPublic=%v", updated.Title, updated.IsPublic)
	}
	// 未提供的字段保持不变。
	if updated.Layout != "modern" {
		t.Fatalf("layout changed unexpectedly: %q", updated.Layout)
	}

	var decoded Data
	if err := json.Unmarshal(updated.Content, &decoded); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if decoded.Personal.FullName != "Alice Dupont" {
		t.Fatal("content changed without being supplied")
	}
}

func TestUpdate_RevalidatesContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")

	row, err := svc.Create(context.Background(), candidate.ID, CreateInput{Title: "CV", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	broken := minimalContent()
	broken.Personal.FullName = ""
	_, err = svc.Update(context.Background(), row.ID, candidate.ID, UpdatePatch{Content: &broken})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "personal.fullName" {
		t.Fatalf("field path: got %q", vErr.Field)
	}
}

func TestUpdate_OwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	alice := seedCandidate(t, db, "Alice", "a@x.com")
	bob := seedCandidate(t, db, "Bob", "b@x.com")

	row, err := svc.Create(context.Background(), bob.ID, CreateInput{
		Title:   "CV de Bob",
		Content: minimalContent(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Hijacked"
	if _, err := svc.Update(context.Background(), row.ID, alice.ID, UpdatePatch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	reloaded, err := svc.Get(context.Background(), row.ID, bob.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Title != "CV de Bob" {
		t.Fatalf("cross-candidate update mutated the document: %q", reloaded.Title)
	}
}

func TestSetPrimary_DemotesPrevious(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	r1, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "R1", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create r1: %v", err)
	}
	r2, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "R2", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create r2: %v", err)
	}

	if _, err := svc.SetPrimary(ctx, r1.ID, candidate.ID); err != nil {
		t.Fatalf("set primary r1: %v", err)
	}

	var beforeDemote database.Resume
	if err := db.First(&beforeDemote, r1.ID).Error; err != nil {
		t.Fatalf("reload r1: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := svc.SetPrimary(ctx, r2.ID, candidate.ID); err != nil {
		t.Fatalf("set primary r2: %v", err)
	}

	var got1, got2 database.Resume
	if err := db.First(&got1, r1.ID).Error; err != nil {
		t.Fatalf("reload r1: %v", err)
	}
	if err := db.First(&got2, r2.ID).Error; err != nil {
		t.Fatalf("reload r2: %v", err)
	}
	if got1.IsPrimary {
		t.Fatal("r1 must be demoted")
	}
	if !got2.IsPrimary {
		t.Fatal("r2 must be primary")
	}
	// 被动降级的记录也算被修改，updatedAt 要刷新。
	if !got1.UpdatedAt.After(beforeDemote.UpdatedAt) {
		t.Fatal("demoted record must refresh updatedAt")
	}
	if n := countPrimaries(t, db, candidate.ID); n != 1 {
		t.Fatalf("primary count: got %d want 1", n)
	}
}

func TestSetPrimary_InvariantUnderRepeatedSwitches(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	ids := make([]uint, 0, 4)
	for i := 0; i < 4; i++ {
		row, err := svc.Create(ctx, candidate.ID, CreateInput{Title: fmt.Sprintf("R%d", i), Content: minimalContent()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, row.ID)
	}

	for i := 0; i < 20; i++ {
		if _, err := svc.SetPrimary(ctx, ids[i%len(ids)], candidate.ID); err != nil {
			t.Fatalf("set primary #%d: %v", i, err)
		}
		if n := countPrimaries(t, db, candidate.ID); n != 1 {
			t.Fatalf("after switch #%d: primary count %d", i, n)
		}
	}
}

func TestSetPrimary_ConcurrentCallsKeepSinglePrimary(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	ids := make([]uint, 0, 4)
	for i := 0; i < 4; i++ {
		row, err := svc.Create(ctx, candidate.ID, CreateInput{Title: fmt.Sprintf("R%d", i), Content: minimalContent()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, row.ID)
	}

	// 内存 sqlite 限制单连接，并发写否则报 busy。
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := svc.SetPrimary(ctx, id, candidate.ID); err != nil {
				t.Errorf("set primary %d: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if n := countPrimaries(t, db, candidate.ID); n != 1 {
		t.Fatalf("primary count after concurrent switches: got %d want 1", n)
	}
}

func TestSetPrimary_WrongOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	alice := seedCandidate(t, db, "Alice", "a@x.com")
	bob := seedCandidate(t, db, "Bob", "b@x.com")
	ctx := context.Background()

	row, err := svc.Create(ctx, bob.ID, CreateInput{Title: "CV", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetPrimary(ctx, row.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := countPrimaries(t, db, bob.ID); n != 0 {
		t.Fatalf("primary count changed: %d", n)
	}
}

func TestCreateFromProfile_MapsProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Jean Mbarga", "jean@mboa.cm")
	ctx := context.Background()

	candidate.Headline = "Ingénieur Logiciel"
	candidate.Bio = "10 ans de backend."
	candidate.Phone = "+237 690 000 000"
	candidate.LocationCity = "Douala"
	candidate.LocationState = ""
	candidate.LocationCountry = "Cameroun"
	candidate.Skills = []string{"Go", "PostgreSQL"}
	candidate.Links = map[string]any{"github": "https://github.com/jmbarga"}
	if err := db.Save(candidate).Error; err != nil {
		t.Fatalf("save candidate: %v", err)
	}

	endDate := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	experiences := []database.Experience{
		{
			CandidateID: candidate.ID,
			Title:       "Développeur",
			Company:     "Kiroo Games",
			StartDate:   time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC),
			EndDate:     &endDate,
		},
		{
			CandidateID: candidate.ID,
			Title:       "Lead Backend",
			Company:     "MTN",
			StartDate:   time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
			Currently:   true,
		},
	}
	for i := range experiences {
		if err := db.Create(&experiences[i]).Error; err != nil {
			t.Fatalf("seed experience: %v", err)
		}
	}

	row, err := svc.CreateFromProfile(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("create from profile: %v", err)
	}
	if row.Title != "Jean Mbarga - CV" {
		t.Fatalf("title: got %q", row.Title)
	}
	if row.IsPrimary {
		t.Fatal("profile-derived resume must not be primary")
	}

	var content Data
	if err := json.Unmarshal(row.Content, &content); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if content.Personal.Location != "Douala, Cameroun" {
		t.Fatalf("location join: got %q", content.Personal.Location)
	}
	if content.Personal.Links["github"] != "https://github.com/jmbarga" {
		t.Fatalf("links: got %v", content.Personal.Links)
	}
	if len(content.Experiences) != 2 {
		t.Fatalf("experiences: got %d want 2", len(content.Experiences))
	}
	ongoing := content.Experiences[1]
	if !ongoing.Current || ongoing.EndDate != "" {
		t.Fatalf("ongoing experience: current=%v endDate=%q", ongoing.Current, ongoing.EndDate)
	}
	if content.Experiences[0].EndDate != "2021-06-30" {
		t.Fatalf("finished experience endDate: got %q", content.Experiences[0].EndDate)
	}
	if len(content.Education) != 0 {
		t.Fatalf("education must be empty, got %d", len(content.Education))
	}
	for _, skill := range content.Skills {
		if skill.Category != "Technical" || skill.Level != 3 {
			t.Fatalf("skill mapping: %+v", skill)
		}
	}
	if len(content.Projects) != 0 || len(content.Languages) != 0 || len(content.Certifications) != 0 {
		t.Fatal("resume-specific sections must start empty")
	}
}

func TestCreateFromProfile_NoDedup(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	first, err := svc.CreateFromProfile(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.CreateFromProfile(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("repeated calls must create independent documents")
	}

	rows, err := svc.ListByCandidate(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("resume count: got %d want 2", len(rows))
	}
}

func TestCreateFromProfile_UnknownCandidate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	if _, err := svc.CreateFromProfile(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByCandidate_NewestUpdatedFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	r1, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "Ancien", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create r1: %v", err)
	}
	if _, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "Nouveau", Content: minimalContent()}); err != nil {
		t.Fatalf("create r2: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	title := "Ancien (édité)"
	if _, err := svc.Update(ctx, r1.ID, candidate.ID, UpdatePatch{Title: &title}); err != nil {
		t.Fatalf("update r1: %v", err)
	}

	rows, err := svc.ListByCandidate(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("count: got %d", len(rows))
	}
	if rows[0].ID != r1.ID {
		t.Fatalf("expected most recently updated first, got %q", rows[0].Title)
	}
}

func TestApplyTemplate_SnapshotsStyle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	row, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "CV", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	structure, _ := json.Marshal(TemplateStructure{
		Sections: []string{"personal", "experience", "skills"},
		Layout:   LayoutClassic,
	})
	style, _ := json.Marshal(Style{
		Colors:  StyleColors{Primary: "#003049", Secondary: "#669bbc", Background: "#ffffff", Text: "#1a1a1a"},
		Fonts:   StyleFonts{Headings: "Merriweather", Body: "Open Sans"},
		Spacing: StyleSpacing{Section: 24, Item: 12},
	})
	tmpl := database.ResumeTemplate{Name: "Classique", Structure: structure, Style: style, IsPublic: true}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}

	applied, err := svc.ApplyTemplate(ctx, row.ID, candidate.ID, &tmpl)
	if err != nil {
		t.Fatalf("apply template: %v", err)
	}
	if applied.Layout != LayoutClassic {
		t.Fatalf("layout: got %q", applied.Layout)
	}

	// 快照语义：之后修改模板不影响已有简历。
	if err := db.Model(&tmpl).Update("style", datatypes.JSON(`{"colors":{"primary":"#ff0000"}}`)).Error; err != nil {
		t.Fatalf("mutate template: %v", err)
	}
	reloaded, err := svc.Get(ctx, row.ID, candidate.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	var snapshot Style
	if err := json.Unmarshal(reloaded.Style, &snapshot); err != nil {
		t.Fatalf("decode style: %v", err)
	}
	if snapshot.Colors.Primary != "#003049" {
		t.Fatalf("style snapshot must not follow template edits: %q", snapshot.Colors.Primary)
	}
}

func TestDelete_PrimaryLeavesNoReplacement(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	candidate := seedCandidate(t, db, "Alice", "a@x.com")
	ctx := context.Background()

	r1, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "R1", Content: minimalContent()})
	if err != nil {
		t.Fatalf("create r1: %v", err)
	}
	if _, err := svc.Create(ctx, candidate.ID, CreateInput{Title: "R2", Content: minimalContent()}); err != nil {
		t.Fatalf("create r2: %v", err)
	}
	if _, err := svc.SetPrimary(ctx, r1.ID, candidate.ID); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	if err := svc.Delete(ctx, r1.ID, candidate.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := countPrimaries(t, db, candidate.ID); n != 0 {
		t.Fatalf("no replacement primary may be auto-selected, count=%d", n)
	}
}

func TestContentRoundTrip(t *testing.T) {
	content := minimalContent()
	content.Normalize()
	content.Skills = []SkillItem{{ID: "s1", Name: "Go", Category: "Technical", Level: 5}}

	encoded, err := json.Marshal(&content)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// 可选字段缺失时不得出现在序列化结果中。
	if strings.Contains(string(encoded), `"photo"`) {
		t.Fatalf("absent optional field serialized: %s", encoded)
	}
	if !strings.Contains(string(encoded), `"projects":[]`) {
		t.Fatalf("empty sections must serialize as []: %s", encoded)
	}

	var decoded Data
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(content, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, content)
	}
}
