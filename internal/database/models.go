package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 用户角色常量，注册时确定，之后不可变更。
const (
	RoleCandidate = "CANDIDATE"
	RoleRecruiter = "RECRUITER"
	RoleAdmin     = "ADMIN"
)

// 投递状态常量，候选人与招聘方共用。
const (
	ApplicationPending  = "PENDING"
	ApplicationReview   = "REVIEW"
	ApplicationAccepted = "ACCEPTED"
	ApplicationRejected = "REJECTED"
)

// 职位状态。
const (
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email              string `gorm:"uniqueIndex;size:255"`
	PasswordHash       string `gorm:"size:255"`
	Name               string `gorm:"size:128"`
	Role               string `gorm:"size:16;index"`
	MustChangePassword bool   `gorm:"default:false"`
}

// Candidate 表示求职者档案，与 User 一对一。
type Candidate struct {
	gorm.Model
	UserID          uint                        `gorm:"uniqueIndex"`
	User            User                        `gorm:"constraint:OnDelete:CASCADE"`
	Headline        string                      `gorm:"size:255"`
	Bio             string                      `gorm:"type:text"`
	Phone           string                      `gorm:"size:32"`
	LocationCity    string                      `gorm:"size:128"`
	LocationState   string                      `gorm:"size:128"`
	LocationCountry string                      `gorm:"size:128"`
	Skills          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Links           datatypes.JSONMap           `gorm:"type:jsonb"`
	ResumeURL       string                      `gorm:"size:512"`
	Experiences     []Experience                `gorm:"constraint:OnDelete:CASCADE"`
	Educations      []Education                 `gorm:"constraint:OnDelete:CASCADE"`
	Resumes         []Resume                    `gorm:"constraint:OnDelete:CASCADE"`
}

// Recruiter 表示招聘方账号，归属于一个公司。
type Recruiter struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex"`
	User      User `gorm:"constraint:OnDelete:CASCADE"`
	CompanyID *uint
	Company   *Company
}

// Company 表示发布职位的公司主体。
type Company struct {
	gorm.Model
	Name        string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`
	Region      string `gorm:"size:64;index"`
	Website     string `gorm:"size:512"`
	LogoKey     string `gorm:"size:512"`
	Jobs        []Job  `gorm:"constraint:OnDelete:CASCADE"`
}

// Job 表示一条职位发布。
type Job struct {
	gorm.Model
	Title       string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`
	Region      string `gorm:"size:64;index"`
	Type        string `gorm:"size:32;index"` // CDI / CDD / Stage / Freelance / Alternance
	Salary      string `gorm:"size:128"`
	Status      string `gorm:"size:16;default:OPEN"`
	CompanyID   uint   `gorm:"index"`
	Company     Company
	RecruiterID uint `gorm:"index"`
}

// Application 表示候选人对职位的一次投递。
// (job_id, candidate_id) 唯一，重复投递返回冲突。
type Application struct {
	gorm.Model
	JobID       uint `gorm:"uniqueIndex:idx_app_job_candidate"`
	Job         Job  `gorm:"constraint:OnDelete:CASCADE"`
	CandidateID uint `gorm:"uniqueIndex:idx_app_job_candidate"`
	Candidate   Candidate
	ResumeID    *uint
	Status      string `gorm:"size:16;default:PENDING;index"`
	CoverLetter string `gorm:"type:text"`
}

// Experience 表示候选人档案中的一段工作经历。
// EndDate 为空表示仍在职。
type Experience struct {
	gorm.Model
	CandidateID uint   `gorm:"index"`
	Title       string `gorm:"size:255"`
	Company     string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	StartDate   time.Time
	EndDate     *time.Time
	Currently   bool `gorm:"default:false"`
}

// Education 表示候选人档案中的一段教育经历。
type Education struct {
	gorm.Model
	CandidateID uint   `gorm:"index"`
	School      string `gorm:"size:255"`
	Degree      string `gorm:"size:255"`
	Field       string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	StartDate   *time.Time
	EndDate     *time.Time
}

// Resume 表示候选人创建的简历文档。
// Content 存储结构化的简历 JSON（见 internal/resume），Style 为模板样式快照，
// 与模板本体解耦：之后编辑模板不会影响已有简历。
type Resume struct {
	gorm.Model
	CandidateID     uint           `gorm:"index"`
	Title           string         `gorm:"size:255"`
	Layout          string         `gorm:"size:32;default:modern"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	Style           datatypes.JSON `gorm:"type:jsonb"`
	IsPublic        bool           `gorm:"default:false"`
	IsPrimary       bool           `gorm:"default:false;index"`
	PdfUrl          string         `gorm:"size:512"`
	PreviewImageURL string         `gorm:"size:512"`
}

// ResumeTemplate 表示可复用的简历模板。
// Structure 为章节顺序 + 布局标签，Style 为默认样式负载。
type ResumeTemplate struct {
	gorm.Model
	Name      string         `gorm:"size:255"`
	Category  string         `gorm:"size:64"`
	Thumbnail string         `gorm:"size:512"`
	Structure datatypes.JSON `gorm:"type:jsonb"`
	Style     datatypes.JSON `gorm:"type:jsonb"`
	IsPublic  bool           `gorm:"default:false"`
	IsPremium bool           `gorm:"default:false"`
	Price     int            `gorm:"default:0"`
	UserID    uint           `gorm:"index"`
}

// AllModels 返回 AutoMigrate 所需的全部模型。
func AllModels() []any {
	return []any{
		&User{},
		&Candidate{},
		&Recruiter{},
		&Company{},
		&Job{},
		&Application{},
		&Experience{},
		&Education{},
		&Resume{},
		&ResumeTemplate{},
	}
}
