package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mboajobs/internal/database"
	"mboajobs/internal/resume"
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

func seedCandidateUser(t *testing.T, db *gorm.DB, email, name string) (database.User, database.Candidate) {
	t.Helper()
	user := database.User{Email: email, Name: name, Role: database.RoleCandidate}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	candidate := database.Candidate{UserID: user.ID}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return user, candidate
}

func newAuthedContext(t *testing.T, method, target string, body any, userID uint, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	c.Set("userRole", role)
	return c, w
}

func validContentPayload() map[string]any {
	return map[string]any{
		"personal": map[string]any{
			"fullName": "Alice Dupont",
			"title":    "Designer",
			"email":    "a@x.com",
			"location": "Douala",
		},
	}
}

func TestCreateResume_ReturnsCreated(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedCandidateUser(t, db, "alice@mboajobs.cm", "Alice Dupont")
	h := NewResumeHandler(db, resume.NewService(db), nil, nil)

	c, w := newAuthedContext(t, http.MethodPost, "/v1/resumes", map[string]any{
		"title":   "Mon CV",
		"content": validContentPayload(),
	}, user.ID, database.RoleCandidate)

	h.CreateResume(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Layout != resume.LayoutModern {
		t.Fatalf("expected default layout, got %q", resp.Layout)
	}
	if resp.IsPrimary {
		t.Fatal("new resume must not be primary")
	}
}

func TestCreateResume_ValidationErrorCarriesFieldPath(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedCandidateUser(t, db, "alice@mboajobs.cm", "Alice Dupont")
	h := NewResumeHandler(db, resume.NewService(db), nil, nil)

	content := validContentPayload()
	content["personal"].(map[string]any)["email"] = ""

	c, w := newAuthedContext(t, http.MethodPost, "/v1/resumes", map[string]any{
		"title":   "Mon CV",
		"content": content,
	}, user.ID, database.RoleCandidate)

	h.CreateResume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["field"] != "personal.email" {
		t.Fatalf("expected field personal.email, got %q", resp["field"])
	}
}

func TestSetPrimary_DemotesPreviousViaEndpoint(t *testing.T) {
	db := newTestDB(t)
	user, candidate := seedCandidateUser(t, db, "alice@mboajobs.cm", "Alice Dupont")
	service := resume.NewService(db)
	h := NewResumeHandler(db, service, nil, nil)

	first := createResumeForTest(t, service, candidate.ID, "CV 1")
	second := createResumeForTest(t, service, candidate.ID, "CV 2")

	c, w := newAuthedContext(t, http.MethodPut, "/v1/resumes/0/primary", nil, user.ID, database.RoleCandidate)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(first.ID)}}
	h.SetPrimary(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	c, w = newAuthedContext(t, http.MethodPut, "/v1/resumes/0/primary", nil, user.ID, database.RoleCandidate)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(second.ID)}}
	h.SetPrimary(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&database.Resume{}).
		Where("candidate_id = ? AND is_primary = ?", candidate.ID, true).
		Count(&count).Error; err != nil {
		t.Fatalf("count primary: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one primary resume, got %d", count)
	}

	var reloaded database.Resume
	if err := db.First(&reloaded, second.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsPrimary {
		t.Fatal("second resume should be primary")
	}
}

func TestGetResume_ForeignOwnerNotFound(t *testing.T) {
	db := newTestDB(t)
	_, alice := seedCandidateUser(t, db, "alice@mboajobs.cm", "Alice Dupont")
	bob, _ := seedCandidateUser(t, db, "bob@mboajobs.cm", "Bob Kamga")
	service := resume.NewService(db)
	h := NewResumeHandler(db, service, nil, nil)

	row := createResumeForTest(t, service, alice.ID, "CV Alice")

	c, w := newAuthedContext(t, http.MethodGet, "/v1/resumes/0", nil, bob.ID, database.RoleCandidate)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(row.ID)}}
	h.GetResume(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateFromProfile_UsesProfileData(t *testing.T) {
	db := newTestDB(t)
	user, candidate := seedCandidateUser(t, db, "alice@mboajobs.cm", "Alice Dupont")
	if err := db.Model(&database.Candidate{}).Where("id = ?", candidate.ID).Updates(map[string]any{
		"headline":      "Designer",
		"location_city": "Douala",
	}).Error; err != nil {
		t.Fatalf("update candidate: %v", err)
	}

	h := NewResumeHandler(db, resume.NewService(db), nil, nil)

	c, w := newAuthedContext(t, http.MethodPost, "/v1/resumes/from-profile", nil, user.ID, database.RoleCandidate)
	h.CreateFromProfile(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Title != "Alice Dupont - CV" {
		t.Fatalf("unexpected title %q", resp.Title)
	}

	var content resume.Data
	if err := json.Unmarshal(resp.Content, &content); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if content.Personal.Location != "Douala" {
		t.Fatalf("unexpected location %q", content.Personal.Location)
	}
}

func createResumeForTest(t *testing.T, service *resume.Service, candidateID uint, title string) *database.Resume {
	t.Helper()
	row, err := service.Create(context.Background(), candidateID, resume.CreateInput{
		Title: title,
		Content: resume.Data{
			Personal: resume.Personal{FullName: "Alice Dupont", Title: "Designer", Email: "a@x.com"},
		},
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}
	return row
}
