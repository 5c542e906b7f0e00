package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mboajobs/internal/database"
)

// ProfileHandler 负责候选人档案及其经历条目的维护。
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler 构造 ProfileHandler。
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

type profileResponse struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Headline        string               `json:"headline"`
	Bio             string               `json:"bio"`
	Phone           string               `json:"phone"`
	LocationCity    string               `json:"location_city"`
	LocationState   string               `json:"location_state"`
	LocationCountry string               `json:"location_country"`
	Skills          []string             `json:"skills"`
	Links           map[string]any       `json:"links"`
	Experiences     []experienceResponse `json:"experiences"`
	Educations      []educationResponse  `json:"educations"`
}

type experienceResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Currently   bool       `json:"currently"`
}

type educationResponse struct {
	ID          uint       `json:"id"`
	School      string     `json:"school"`
	Degree      string     `json:"degree"`
	Field       string     `json:"field"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// GetProfile 返回候选人完整档案，含经历与教育条目。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var candidate database.Candidate
	if err := h.db.WithContext(ctx).
		Preload("User").
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		Preload("Educations", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		Where("user_id = ?", userID).
		First(&candidate).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "candidate profile not found")
			return
		}
		Internal(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(candidate))
}

type updateProfileRequest struct {
	Name            *string            `json:"name"`
	Headline        *string            `json:"headline"`
	Bio             *string            `json:"bio"`
	Phone           *string            `json:"phone"`
	LocationCity    *string            `json:"location_city"`
	LocationState   *string            `json:"location_state"`
	LocationCountry *string            `json:"location_country"`
	Skills          *[]string          `json:"skills"`
	Links           *map[string]string `json:"links"`
}

// UpdateProfile 局部更新候选人档案，未提供的字段保持不变。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	candidate, err := candidateForUser(ctx, h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "candidate profile not found")
			return
		}
		Internal(c, "failed to load profile")
		return
	}

	updates := map[string]any{}
	if req.Headline != nil {
		updates["headline"] = *req.Headline
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.LocationCity != nil {
		updates["location_city"] = *req.LocationCity
	}
	if req.LocationState != nil {
		updates["location_state"] = *req.LocationState
	}
	if req.LocationCountry != nil {
		updates["location_country"] = *req.LocationCountry
	}
	if req.Skills != nil {
		updates["skills"] = datatypes.NewJSONSlice(*req.Skills)
	}
	if req.Links != nil {
		links := datatypes.JSONMap{}
		for label, value := range *req.Links {
			links[label] = value
		}
		updates["links"] = links
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(candidate).Updates(updates).Error; err != nil {
			Internal(c, "failed to update profile")
			return
		}
	}

	if req.Name != nil {
		if err := h.db.WithContext(ctx).Model(&database.User{}).
			Where("id = ?", userID).
			Update("name", *req.Name).Error; err != nil {
			Internal(c, "failed to update name")
			return
		}
	}

	var reloaded database.Candidate
	if err := h.db.WithContext(ctx).
		Preload("User").
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		Preload("Educations", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		First(&reloaded, candidate.ID).Error; err != nil {
		Internal(c, "failed to reload profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(reloaded))
}

type experienceRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Company     string     `json:"company" binding:"required,max=255"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date" binding:"required"`
	EndDate     *time.Time `json:"end_date"`
	Currently   bool       `json:"currently"`
}

// AddExperience 在档案上追加一段工作经历。
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		BadRequest(c, "end_date must not be before start_date")
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	experience := database.Experience{
		CandidateID: candidate.ID,
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Currently:   req.Currently,
	}
	if experience.Currently {
		experience.EndDate = nil
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&experience).Error; err != nil {
		Internal(c, "failed to create experience")
		return
	}

	c.JSON(http.StatusCreated, newExperienceResponse(experience))
}

// UpdateExperience 覆盖指定的工作经历。
func (h *ProfileHandler) UpdateExperience(c *gin.Context) {
	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		BadRequest(c, "end_date must not be before start_date")
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid experience id")
		return
	}

	ctx := c.Request.Context()
	var experience database.Experience
	if err := h.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", id, candidate.ID).
		First(&experience).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "experience not found")
			return
		}
		Internal(c, "failed to query experience")
		return
	}

	endDate := req.EndDate
	if req.Currently {
		endDate = nil
	}
	if err := h.db.WithContext(ctx).Model(&experience).Updates(map[string]any{
		"title":       req.Title,
		"company":     req.Company,
		"description": req.Description,
		"start_date":  req.StartDate,
		"end_date":    endDate,
		"currently":   req.Currently,
	}).Error; err != nil {
		Internal(c, "failed to update experience")
		return
	}

	if err := h.db.WithContext(ctx).First(&experience, experience.ID).Error; err != nil {
		Internal(c, "failed to reload experience")
		return
	}

	c.JSON(http.StatusOK, newExperienceResponse(experience))
}

// DeleteExperience 删除指定的工作经历。
func (h *ProfileHandler) DeleteExperience(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid experience id")
		return
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", id, candidate.ID).
		Delete(&database.Experience{})
	if result.Error != nil {
		Internal(c, "failed to delete experience")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "experience not found")
		return
	}

	c.Status(http.StatusNoContent)
}

type educationRequest struct {
	School      string     `json:"school" binding:"required,max=255"`
	Degree      string     `json:"degree" binding:"max=255"`
	Field       string     `json:"field" binding:"max=255"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// AddEducation 在档案上追加一段教育经历。
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		BadRequest(c, "end_date must not be before start_date")
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	education := database.Education{
		CandidateID: candidate.ID,
		School:      req.School,
		Degree:      req.Degree,
		Field:       req.Field,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&education).Error; err != nil {
		Internal(c, "failed to create education")
		return
	}

	c.JSON(http.StatusCreated, newEducationResponse(education))
}

// UpdateEducation 覆盖指定的教育经历。
func (h *ProfileHandler) UpdateEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		BadRequest(c, "end_date must not be before start_date")
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid education id")
		return
	}

	ctx := c.Request.Context()
	var education database.Education
	if err := h.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", id, candidate.ID).
		First(&education).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "education not found")
			return
		}
		Internal(c, "failed to query education")
		return
	}

	if err := h.db.WithContext(ctx).Model(&education).Updates(map[string]any{
		"school":      req.School,
		"degree":      req.Degree,
		"field":       req.Field,
		"description": req.Description,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	}).Error; err != nil {
		Internal(c, "failed to update education")
		return
	}

	if err := h.db.WithContext(ctx).First(&education, education.ID).Error; err != nil {
		Internal(c, "failed to reload education")
		return
	}

	c.JSON(http.StatusOK, newEducationResponse(education))
}

// DeleteEducation 删除指定的教育经历。
func (h *ProfileHandler) DeleteEducation(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid education id")
		return
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", id, candidate.ID).
		Delete(&database.Education{})
	if result.Error != nil {
		Internal(c, "failed to delete education")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "education not found")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) currentCandidate(c *gin.Context) (*database.Candidate, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	candidate, err := candidateForUser(c.Request.Context(), h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "candidate profile not found")
			return nil, false
		}
		Internal(c, "failed to resolve candidate")
		return nil, false
	}
	return candidate, true
}

func parsePathID(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidResumeID
	}
	return uint(id), nil
}

func newProfileResponse(candidate database.Candidate) profileResponse {
	experiences := make([]experienceResponse, 0, len(candidate.Experiences))
	for _, exp := range candidate.Experiences {
		experiences = append(experiences, newExperienceResponse(exp))
	}
	educations := make([]educationResponse, 0, len(candidate.Educations))
	for _, edu := range candidate.Educations {
		educations = append(educations, newEducationResponse(edu))
	}

	skills := []string(candidate.Skills)
	if skills == nil {
		skills = []string{}
	}
	links := map[string]any(candidate.Links)
	if links == nil {
		links = map[string]any{}
	}

	return profileResponse{
		ID:              candidate.ID,
		Name:            candidate.User.Name,
		Email:           candidate.User.Email,
		Headline:        candidate.Headline,
		Bio:             candidate.Bio,
		Phone:           candidate.Phone,
		LocationCity:    candidate.LocationCity,
		LocationState:   candidate.LocationState,
		LocationCountry: candidate.LocationCountry,
		Skills:          skills,
		Links:           links,
		Experiences:     experiences,
		Educations:      educations,
	}
}

func newExperienceResponse(exp database.Experience) experienceResponse {
	return experienceResponse{
		ID:          exp.ID,
		Title:       exp.Title,
		Company:     exp.Company,
		Description: exp.Description,
		StartDate:   exp.StartDate,
		EndDate:     exp.EndDate,
		Currently:   exp.Currently,
	}
}

func newEducationResponse(edu database.Education) educationResponse {
	return educationResponse{
		ID:          edu.ID,
		School:      edu.School,
		Degree:      edu.Degree,
		Field:       edu.Field,
		Description: edu.Description,
		StartDate:   edu.StartDate,
		EndDate:     edu.EndDate,
	}
}
