package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mboajobs/internal/database"
	"mboajobs/internal/resume"
)

// TemplateHandler 负责简历模板的管理。
type TemplateHandler struct {
	db *gorm.DB
}

// NewTemplateHandler 构造 TemplateHandler。
func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db}
}

type createTemplateRequest struct {
	Name      string                   `json:"name" binding:"required,max=255"`
	Category  string                   `json:"category" binding:"max=64"`
	Thumbnail string                   `json:"thumbnail" binding:"max=512"`
	Structure resume.TemplateStructure `json:"structure" binding:"required"`
	Style     *resume.Style            `json:"style"`
	IsPublic  bool                     `json:"is_public"`
	IsPremium bool                     `json:"is_premium"`
	Price     int                      `json:"price"`
}

type templateResponse struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	Structure datatypes.JSON `json:"structure"`
	Style     datatypes.JSON `json:"style,omitempty"`
	IsPublic  bool           `json:"is_public"`
	IsPremium bool           `json:"is_premium"`
	Price     int            `json:"price"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateTemplate 保存一个新模板，章节与布局标签在入口处校验。
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if req.Structure.Layout != "" && !resume.ValidLayout(req.Structure.Layout) {
		BadRequest(c, "unknown layout tag")
		return
	}
	for _, section := range req.Structure.Sections {
		if !resume.ValidSection(section) {
			BadRequest(c, fmt.Sprintf("unknown section %q", section))
			return
		}
	}
	if req.IsPremium && req.Price <= 0 {
		BadRequest(c, "premium template requires a positive price")
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	structureJSON, err := json.Marshal(req.Structure)
	if err != nil {
		Internal(c, "failed to encode structure")
		return
	}

	tmpl := database.ResumeTemplate{
		Name:      req.Name,
		Category:  req.Category,
		Thumbnail: req.Thumbnail,
		Structure: datatypes.JSON(structureJSON),
		IsPublic:  req.IsPublic,
		IsPremium: req.IsPremium,
		Price:     req.Price,
		UserID:    userID,
	}
	if req.Style != nil {
		styleJSON, err := json.Marshal(req.Style)
		if err != nil {
			Internal(c, "failed to encode style")
			return
		}
		tmpl.Style = datatypes.JSON(styleJSON)
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&tmpl).Error; err != nil {
		Internal(c, "failed to create template")
		return
	}

	c.JSON(http.StatusCreated, newTemplateResponse(tmpl))
}

// ListTemplates 列出公开模板与当前用户自己的模板。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var templates []database.ResumeTemplate
	if err := h.db.WithContext(c.Request.Context()).
		Where("is_public = ? OR user_id = ?", true, userID).
		Order("created_at DESC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateResponse, 0, len(templates))
	for _, tmpl := range templates {
		items = append(items, newTemplateResponse(tmpl))
	}

	c.JSON(http.StatusOK, items)
}

// GetTemplate 返回单个模板，非公开模板仅限创建者访问。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid template id")
		return
	}

	var tmpl database.ResumeTemplate
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND (is_public = ? OR user_id = ?)", id, true, userID).
		First(&tmpl).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to query template")
		return
	}

	c.JSON(http.StatusOK, newTemplateResponse(tmpl))
}

// DeleteTemplate 删除当前用户创建的模板。
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid template id")
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&database.ResumeTemplate{})
	if result.Error != nil {
		Internal(c, "failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "template not found")
		return
	}

	c.Status(http.StatusNoContent)
}

func newTemplateResponse(tmpl database.ResumeTemplate) templateResponse {
	return templateResponse{
		ID:        tmpl.ID,
		Name:      tmpl.Name,
		Category:  tmpl.Category,
		Thumbnail: tmpl.Thumbnail,
		Structure: tmpl.Structure,
		Style:     tmpl.Style,
		IsPublic:  tmpl.IsPublic,
		IsPremium: tmpl.IsPremium,
		Price:     tmpl.Price,
		CreatedAt: tmpl.CreatedAt,
	}
}
