package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mboajobs/internal/database"
)

// CompanyHandler 负责公司主体的管理。
type CompanyHandler struct {
	db *gorm.DB
}

// NewCompanyHandler 构造 CompanyHandler。
func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

type companyRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Region      string `json:"region" binding:"max=64"`
	Website     string `json:"website" binding:"max=512"`
}

type companyResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Region      string    `json:"region"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCompany 创建公司并绑定到当前招聘方账号。
// 一个招聘方只能归属一家公司，已绑定时返回冲突。
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req companyRequest
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
	recruiter, err := recruiterForUser(ctx, h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "recruiter profile not found")
			return
		}
		Internal(c, "failed to resolve recruiter")
		return
	}
	if recruiter.CompanyID != nil {
		Conflict(c, "recruiter already belongs to a company")
		return
	}

	company := database.Company{
		Name:        req.Name,
		Description: req.Description,
		Region:      req.Region,
		Website:     req.Website,
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		return tx.Model(recruiter).Update("company_id", company.ID).Error
	})
	if err != nil {
		Internal(c, "failed to create company")
		return
	}

	c.JSON(http.StatusCreated, newCompanyResponse(company))
}

// GetCompany 返回公司公开信息。
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid company id")
		return
	}

	var company database.Company
	if err := h.db.WithContext(c.Request.Context()).First(&company, id).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "company not found")
			return
		}
		Internal(c, "failed to query company")
		return
	}

	c.JSON(http.StatusOK, newCompanyResponse(company))
}

// ListCompanies 分页列出公司。
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var companies []database.Company
	var total int64
	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.Company{})
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	if err := query.Count(&total).Error; err != nil {
		Internal(c, "failed to count companies")
		return
	}
	if err := query.
		Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companies).Error; err != nil {
		Internal(c, "failed to list companies")
		return
	}

	items := make([]companyResponse, 0, len(companies))
	for _, company := range companies {
		items = append(items, newCompanyResponse(company))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// UpdateCompany 更新公司信息，仅限归属该公司的招聘方。
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid company id")
		return
	}

	ctx := c.Request.Context()
	recruiter, err := recruiterForUser(ctx, h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "recruiter profile not found")
			return
		}
		Internal(c, "failed to resolve recruiter")
		return
	}
	if recruiter.CompanyID == nil || *recruiter.CompanyID != id {
		Forbidden(c, "access denied")
		return
	}

	var company database.Company
	if err := h.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "company not found")
			return
		}
		Internal(c, "failed to query company")
		return
	}

	if err := h.db.WithContext(ctx).Model(&company).Updates(map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"region":      req.Region,
		"website":     req.Website,
	}).Error; err != nil {
		Internal(c, "failed to update company")
		return
	}

	if err := h.db.WithContext(ctx).First(&company, id).Error; err != nil {
		Internal(c, "failed to reload company")
		return
	}

	c.JSON(http.StatusOK, newCompanyResponse(company))
}

func newCompanyResponse(company database.Company) companyResponse {
	return companyResponse{
		ID:          company.ID,
		Name:        company.Name,
		Description: company.Description,
		Region:      company.Region,
		Website:     company.Website,
		CreatedAt:   company.CreatedAt,
	}
}
