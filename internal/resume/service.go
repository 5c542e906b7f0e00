package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mboajobs/internal/database"
)

// ErrNotFound 表示候选人或简历不存在。
// 查询始终同时按 id 与 candidate_id 过滤，访问他人简历与不存在同样返回该错误，
// 避免跨候选人探测。
var ErrNotFound = errors.New("resume not found")

// Service 拥有简历文档的生命周期规则：创建、局部更新、主简历切换、
// 从候选人档案预填，以及"每个候选人至多一份主简历"不变量。
type Service struct {
	db *gorm.DB
}

// NewService 构造简历服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput 是创建简历的入参。Layout 省略时取 modern，Style 可选。
type CreateInput struct {
	Title   string
	Content Data
	Layout  string
	Style   *Style
}

// UpdatePatch 描述局部更新：nil 字段不变。
// IsPrimary 不在此处变更，必须通过 SetPrimary。
type UpdatePatch struct {
	Title    *string
	Content  *Data
	Layout   *string
	Style    *Style
	IsPublic *bool
}

// Create 校验内容并持久化一份新简历，isPrimary/isPublic 均为 false，
// 不影响候选人已有的主简历。
func (s *Service) Create(ctx context.Context, candidateID uint, input CreateInput) (*database.Resume, error) {
	if err := s.ensureCandidateExists(ctx, candidateID); err != nil {
		return nil, err
	}

	layout := input.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	if !ValidLayout(layout) {
		return nil, invalid("layout", "must be one of modern, classic, creative, minimalist")
	}

	content := input.Content
	content.Normalize()
	if err := Validate(&content); err != nil {
		return nil, err
	}

	contentJSON, err := json.Marshal(&content)
	if err != nil {
		return nil, fmt.Errorf("marshal resume content: %w", err)
	}

	row := database.Resume{
		CandidateID: candidateID,
		Title:       input.Title,
		Layout:      layout,
		Content:     datatypes.JSON(contentJSON),
	}
	if input.Style != nil {
		styleJSON, err := json.Marshal(input.Style)
		if err != nil {
			return nil, fmt.Errorf("marshal resume style: %w", err)
		}
		row.Style = datatypes.JSON(styleJSON)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}
	return &row, nil
}

// Update 仅修改提供的字段，查询按 (id, candidate_id) 限定。
// 提供了 Content 时按创建同样的规则重新校验。
func (s *Service) Update(ctx context.Context, id, candidateID uint, patch UpdatePatch) (*database.Resume, error) {
	row, err := s.Get(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Layout != nil {
		if !ValidLayout(*patch.Layout) {
			return nil, invalid("layout", "must be one of modern, classic, creative, minimalist")
		}
		updates["layout"] = *patch.Layout
	}
	if patch.Content != nil {
		content := *patch.Content
		content.Normalize()
		if err := Validate(&content); err != nil {
			return nil, err
		}
		contentJSON, err := json.Marshal(&content)
		if err != nil {
			return nil, fmt.Errorf("marshal resume content: %w", err)
		}
		updates["content"] = datatypes.JSON(contentJSON)
	}
	if patch.Style != nil {
		styleJSON, err := json.Marshal(patch.Style)
		if err != nil {
			return nil, fmt.Errorf("marshal resume style: %w", err)
		}
		updates["style"] = datatypes.JSON(styleJSON)
	}
	if patch.IsPublic != nil {
		updates["is_public"] = *patch.IsPublic
	}

	if len(updates) == 0 {
		return row, nil
	}

	if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update resume: %w", err)
	}
	if err := s.db.WithContext(ctx).First(row, row.ID).Error; err != nil {
		return nil, fmt.Errorf("reload resume: %w", err)
	}
	return row, nil
}

// SetPrimary 在单个事务内先取消该候选人其他主简历、再提升目标简历，
// 保证并发调用下"至多一份主简历"不变量成立，失败时整体回滚。
// 事务开头对候选人行加 FOR UPDATE 锁：READ COMMITTED 下两个并发切换
// 各自的 demote 都可能命中 0 行，必须先在候选人行上串行化。
// sqlite 驱动会忽略锁子句，其单写锁本身即串行。
func (s *Service) SetPrimary(ctx context.Context, id, candidateID uint) (*database.Resume, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner database.Candidate
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&owner, candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock candidate: %w", err)
		}

		var target database.Resume
		if err := tx.Where("id = ? AND candidate_id = ?", id, candidateID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query resume: %w", err)
		}

		if err := tx.Model(&database.Resume{}).
			Where("candidate_id = ? AND is_primary = ? AND id <> ?", candidateID, true, id).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("demote previous primary: %w", err)
		}

		if err := tx.Model(&target).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("promote resume: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id, candidateID)
}

// CreateFromProfile 从候选人档案复制出一份新简历文档。
// 不做去重：重复调用每次都生成独立的新文档（与原行为一致，见 DESIGN.md）。
func (s *Service) CreateFromProfile(ctx context.Context, candidateID uint) (*database.Resume, error) {
	var candidate database.Candidate
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Educations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&candidate, candidateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query candidate: %w", err)
	}

	content := BuildProfileDocument(&candidate)
	title := strings.TrimSpace(candidate.User.Name) + " - CV"

	return s.Create(ctx, candidateID, CreateInput{
		Title:   title,
		Content: content,
	})
}

// BuildProfileDocument 把候选人档案映射为简历文档：
// 地点各段用 ", " 连接并跳过空段；在职经历 endDate 留空且 current=true；
// 技能标签统一进 Technical 类目并给出中性的占位等级；
// 项目/语言/证书是简历专属的补充内容，档案上没有，留空起步。
func BuildProfileDocument(candidate *database.Candidate) Data {
	locationParts := make([]string, 0, 3)
	for _, part := range []string{candidate.LocationCity, candidate.LocationState, candidate.LocationCountry} {
		if strings.TrimSpace(part) != "" {
			locationParts = append(locationParts, part)
		}
	}

	links := map[string]string{}
	for label, value := range candidate.Links {
		if text, ok := value.(string); ok {
			links[label] = text
		}
	}

	content := Data{
		Personal: Personal{
			FullName: candidate.User.Name,
			Title:    candidate.Headline,
			Email:    candidate.User.Email,
			Phone:    candidate.Phone,
			Location: strings.Join(locationParts, ", "),
			Summary:  candidate.Bio,
			Links:    links,
		},
		Experiences:    make([]ExperienceItem, 0, len(candidate.Experiences)),
		Education:      make([]EducationItem, 0, len(candidate.Educations)),
		Skills:         make([]SkillItem, 0, len(candidate.Skills)),
		Projects:       []ProjectItem{},
		Languages:      []LanguageItem{},
		Certifications: []CertificationItem{},
	}

	for _, exp := range candidate.Experiences {
		endDate := ""
		if !exp.Currently && exp.EndDate != nil {
			endDate = exp.EndDate.Format(dateLayout)
		}
		content.Experiences = append(content.Experiences, ExperienceItem{
			ID:          uuid.NewString(),
			Company:     exp.Company,
			Position:    exp.Title,
			Location:    "",
			StartDate:   exp.StartDate.Format(dateLayout),
			EndDate:     endDate,
			Current:     exp.Currently,
			Description: exp.Description,
			Skills:      []string{},
		})
	}

	for _, edu := range candidate.Educations {
		startDate := ""
		if edu.StartDate != nil {
			startDate = edu.StartDate.Format(dateLayout)
		}
		endDate := ""
		if edu.EndDate != nil {
			endDate = edu.EndDate.Format(dateLayout)
		}
		content.Education = append(content.Education, EducationItem{
			ID:          uuid.NewString(),
			School:      edu.School,
			Degree:      edu.Degree,
			Field:       edu.Field,
			StartDate:   startDate,
			EndDate:     endDate,
			Description: "",
		})
	}

	for _, skill := range candidate.Skills {
		content.Skills = append(content.Skills, SkillItem{
			ID:       uuid.NewString(),
			Name:     skill,
			Category: "Technical",
			Level:    3,
		})
	}

	return content
}

// ApplyTemplate 把模板的布局标签与样式负载快照到简历行上。
// 纯值复制：不记录模板 ID，之后修改模板不影响该简历。
func (s *Service) ApplyTemplate(ctx context.Context, id, candidateID uint, tmpl *database.ResumeTemplate) (*database.Resume, error) {
	row, err := s.Get(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if len(tmpl.Structure) > 0 {
		var structure TemplateStructure
		if err := json.Unmarshal(tmpl.Structure, &structure); err != nil {
			return nil, fmt.Errorf("decode template structure: %w", err)
		}
		if structure.Layout != "" {
			if !ValidLayout(structure.Layout) {
				return nil, invalid("layout", "template carries an unknown layout tag")
			}
			updates["layout"] = structure.Layout
		}
	}
	if len(tmpl.Style) > 0 {
		updates["style"] = datatypes.JSON(append([]byte(nil), tmpl.Style...))
	}
	if len(updates) == 0 {
		return row, nil
	}

	if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("apply template: %w", err)
	}
	if err := s.db.WithContext(ctx).First(row, row.ID).Error; err != nil {
		return nil, fmt.Errorf("reload resume: %w", err)
	}
	return row, nil
}

// ListByCandidate 返回候选人的全部简历，最近更新的在前。
func (s *Service) ListByCandidate(ctx context.Context, candidateID uint) ([]database.Resume, error) {
	var rows []database.Resume
	if err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return rows, nil
}

// Get 按 (id, candidate_id) 读取一份简历。
func (s *Service) Get(ctx context.Context, id, candidateID uint) (*database.Resume, error) {
	var row database.Resume
	if err := s.db.WithContext(ctx).
		Where("id = ? AND candidate_id = ?", id, candidateID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query resume: %w", err)
	}
	return &row, nil
}

// Delete 删除一份简历。删除主简历时不会自动指定替补。
func (s *Service) Delete(ctx context.Context, id, candidateID uint) error {
	row, err := s.Get(ctx, id, candidateID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&database.Resume{}, row.ID).Error; err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

func (s *Service) ensureCandidateExists(ctx context.Context, candidateID uint) error {
	var candidate database.Candidate
	if err := s.db.WithContext(ctx).Select("id").First(&candidate, candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("query candidate: %w", err)
	}
	return nil
}
