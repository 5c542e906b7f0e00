package resume

// Data 表示存储在简历 Content(JSONB) 中的结构化文档。
// 字段名即存储与传输格式，序列化时必须逐字段保持；
// 可选字段缺失时要保持缺失（omitempty），空的章节列表保持为 []。
type Data struct {
	Personal       Personal            `json:"personal"`
	Experiences    []ExperienceItem    `json:"experiences"`
	Education      []EducationItem     `json:"education"`
	Skills         []SkillItem         `json:"skills"`
	Projects       []ProjectItem       `json:"projects"`
	Languages      []LanguageItem      `json:"languages"`
	Certifications []CertificationItem `json:"certifications"`
}

// Personal 描述简历头部的个人信息块。
type Personal struct {
	FullName string            `json:"fullName"`
	Title    string            `json:"title"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone"`
	Location string            `json:"location"`
	Photo    string            `json:"photo,omitempty"`
	Summary  string            `json:"summary"`
	Links    map[string]string `json:"links"`
}

// ExperienceItem 表示简历中的一段工作经历。
// 与档案中的 Experience 行是复制关系而非引用：档案再编辑不会回写到这里。
type ExperienceItem struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Current     bool     `json:"current"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// EducationItem 表示简历中的一段教育经历。
type EducationItem struct {
	ID          string `json:"id"`
	School      string `json:"school"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// SkillItem 表示一项技能，Level 取值 1-5。
type SkillItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
}

// ProjectItem 表示一个项目条目。
type ProjectItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
}

// LanguageItem 表示语言能力，Level 为 beginner/intermediate/advanced/native。
type LanguageItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// CertificationItem 表示一项证书。
type CertificationItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
	Link   string `json:"link,omitempty"`
}

// Style 是模板样式负载。创建/编辑时从模板整体复制到简历行上（快照），
// 不保留对模板的引用。
type Style struct {
	Colors  StyleColors  `json:"colors"`
	Fonts   StyleFonts   `json:"fonts"`
	Spacing StyleSpacing `json:"spacing"`
}

// StyleColors 描述配色。
type StyleColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent,omitempty"`
}

// StyleFonts 描述标题与正文字体。
type StyleFonts struct {
	Headings string `json:"headings"`
	Body     string `json:"body"`
}

// StyleSpacing 描述章节与条目间距（单位由渲染层决定）。
type StyleSpacing struct {
	Section int `json:"section"`
	Item    int `json:"item"`
}

// TemplateStructure 是 ResumeTemplate.Structure 的 JSON 结构：
// 渲染的章节顺序 + 布局标签。
type TemplateStructure struct {
	Sections []string `json:"sections"`
	Layout   string   `json:"layout"`
}

// 布局标签与章节标识的合法取值。
const (
	LayoutModern     = "modern"
	LayoutClassic    = "classic"
	LayoutCreative   = "creative"
	LayoutMinimalist = "minimalist"

	DefaultLayout = LayoutModern
)

var validLayouts = map[string]struct{}{
	LayoutModern:     {},
	LayoutClassic:    {},
	LayoutCreative:   {},
	LayoutMinimalist: {},
}

// ValidLayout 判断布局标签是否合法。
func ValidLayout(layout string) bool {
	_, ok := validLayouts[layout]
	return ok
}

var validSections = map[string]struct{}{
	"personal":       {},
	"experience":     {},
	"education":      {},
	"skills":         {},
	"projects":       {},
	"languages":      {},
	"certifications": {},
}

// ValidSection 判断模板章节标识是否合法。
func ValidSection(section string) bool {
	_, ok := validSections[section]
	return ok
}

// Normalize 将缺失的集合字段补成空值，保证空章节序列化为 [] 而不是 null。
func (d *Data) Normalize() {
	if d.Personal.Links == nil {
		d.Personal.Links = map[string]string{}
	}
	if d.Experiences == nil {
		d.Experiences = []ExperienceItem{}
	}
	for i := range d.Experiences {
		if d.Experiences[i].Skills == nil {
			d.Experiences[i].Skills = []string{}
		}
	}
	if d.Education == nil {
		d.Education = []EducationItem{}
	}
	if d.Skills == nil {
		d.Skills = []SkillItem{}
	}
	if d.Projects == nil {
		d.Projects = []ProjectItem{}
	}
	for i := range d.Projects {
		if d.Projects[i].Technologies == nil {
			d.Projects[i].Technologies = []string{}
		}
	}
	if d.Languages == nil {
		d.Languages = []LanguageItem{}
	}
	if d.Certifications == nil {
		d.Certifications = []CertificationItem{}
	}
}
