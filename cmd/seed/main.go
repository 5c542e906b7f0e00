package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mboajobs/internal/auth"
	"mboajobs/internal/config"
	"mboajobs/internal/database"
	"mboajobs/internal/resume"
)

// 职位发布所覆盖的地区与合同类型。
var (
	regions = []string{
		"Centre", "Littoral", "Ouest", "Nord-Ouest", "Sud-Ouest",
		"Adamaoua", "Est", "Extrême-Nord", "Nord", "Sud",
	}
	jobTypes = []string{"CDI", "CDD", "Stage", "Freelance", "Alternance"}
	cities   = []string{"Yaoundé", "Douala", "Bafoussam", "Bamenda", "Buea", "Garoua", "Maroua", "Bertoua", "Ngaoundéré", "Ebolowa"}
	skills   = []string{"Go", "Python", "JavaScript", "React", "PostgreSQL", "Docker", "Kubernetes", "Comptabilité", "Marketing", "Vente", "Gestion de projet", "Design"}
)

func main() {
	var (
		seed       = flag.Int64("seed", 42, "随机种子，固定后每次生成相同数据")
		companies  = flag.Int("companies", 10, "公司数量")
		candidates = flag.Int("candidates", 30, "候选人数量")
		jobsPer    = flag.Int("jobs-per-company", 3, "每家公司的职位数量")
	)
	flag.Parse()

	gofakeit.Seed(*seed)

	cfg := config.MustLoad()
	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	// 所有演示账号共用同一口令，避免每个账号都跑一次 bcrypt。
	passwordHash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	companyRows := seedCompanies(db, *companies, *jobsPer, passwordHash)
	candidateRows := seedCandidates(db, *candidates, passwordHash)
	seedApplications(db, companyRows, candidateRows)
	seedTemplates(db)

	log.Printf("seed complete: %d companies, %d candidates", len(companyRows), len(candidateRows))
	log.Printf("demo accounts use the password %q", "password123")
}

func seedCompanies(db *gorm.DB, count, jobsPerCompany int, passwordHash string) []database.Company {
	companies := make([]database.Company, 0, count)

	for i := 0; i < count; i++ {
		region := regions[i%len(regions)]
		company := database.Company{
			Name:        gofakeit.Company(),
			Description: gofakeit.Paragraph(1, 3, 12, " "),
			Region:      region,
			Website:     gofakeit.URL(),
		}
		if err := db.Create(&company).Error; err != nil {
			log.Fatalf("create company: %v", err)
		}

		user := database.User{
			Email:        fmt.Sprintf("recruiter%d@%s", i+1, "mboajobs.cm"),
			PasswordHash: passwordHash,
			Name:         gofakeit.Name(),
			Role:         database.RoleRecruiter,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("create recruiter user: %v", err)
		}
		recruiter := database.Recruiter{UserID: user.ID, CompanyID: &company.ID}
		if err := db.Create(&recruiter).Error; err != nil {
			log.Fatalf("create recruiter: %v", err)
		}

		for j := 0; j < jobsPerCompany; j++ {
			job := database.Job{
				Title:       gofakeit.JobTitle(),
				Description: gofakeit.Paragraph(2, 4, 15, " "),
				Region:      region,
				Type:        jobTypes[gofakeit.Number(0, len(jobTypes)-1)],
				Salary:      fmt.Sprintf("%d 000 - %d 000 FCFA", gofakeit.Number(150, 400), gofakeit.Number(400, 900)),
				Status:      database.JobStatusOpen,
				CompanyID:   company.ID,
				RecruiterID: recruiter.ID,
			}
			if err := db.Create(&job).Error; err != nil {
				log.Fatalf("create job: %v", err)
			}
		}

		companies = append(companies, company)
	}

	return companies
}

func seedCandidates(db *gorm.DB, count int, passwordHash string) []database.Candidate {
	candidates := make([]database.Candidate, 0, count)

	for i := 0; i < count; i++ {
		user := database.User{
			Email:        fmt.Sprintf("candidate%d@mboajobs.cm", i+1),
			PasswordHash: passwordHash,
			Name:         gofakeit.Name(),
			Role:         database.RoleCandidate,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("create candidate user: %v", err)
		}

		skillCount := gofakeit.Number(2, 5)
		picked := make([]string, 0, skillCount)
		for len(picked) < skillCount {
			skill := skills[gofakeit.Number(0, len(skills)-1)]
			if !contains(picked, skill) {
				picked = append(picked, skill)
			}
		}

		candidate := database.Candidate{
			UserID:          user.ID,
			Headline:        gofakeit.JobTitle(),
			Bio:             gofakeit.Paragraph(1, 2, 10, " "),
			Phone:           gofakeit.Phone(),
			LocationCity:    cities[gofakeit.Number(0, len(cities)-1)],
			LocationCountry: "Cameroun",
			Skills:          datatypes.NewJSONSlice(picked),
			Links:           datatypes.JSONMap{"linkedin": "https://linkedin.com/in/" + gofakeit.Username()},
		}
		if err := db.Create(&candidate).Error; err != nil {
			log.Fatalf("create candidate: %v", err)
		}

		seedExperiences(db, candidate.ID)
		candidates = append(candidates, candidate)
	}

	return candidates
}

func seedExperiences(db *gorm.DB, candidateID uint) {
	expCount := gofakeit.Number(1, 3)
	cursor := time.Now().AddDate(-expCount*2, 0, 0)

	for i := 0; i < expCount; i++ {
		start := cursor
		end := start.AddDate(1, gofakeit.Number(0, 11), 0)
		currently := i == expCount-1 && gofakeit.Bool()

		experience := database.Experience{
			CandidateID: candidateID,
			Title:       gofakeit.JobTitle(),
			Company:     gofakeit.Company(),
			Description: gofakeit.Sentence(12),
			StartDate:   start,
			Currently:   currently,
		}
		if !currently {
			experience.EndDate = &end
		}
		if err := db.Create(&experience).Error; err != nil {
			log.Fatalf("create experience: %v", err)
		}
		cursor = end.AddDate(0, 1, 0)
	}

	gradYear := time.Date(time.Now().Year()-gofakeit.Number(3, 10), time.June, 30, 0, 0, 0, 0, time.UTC)
	startYear := gradYear.AddDate(-3, 0, 0)
	education := database.Education{
		CandidateID: candidateID,
		School:      "Université de " + cities[gofakeit.Number(0, len(cities)-1)],
		Degree:      "Licence",
		Field:       gofakeit.JobDescriptor(),
		StartDate:   &startYear,
		EndDate:     &gradYear,
	}
	if err := db.Create(&education).Error; err != nil {
		log.Fatalf("create education: %v", err)
	}
}

func seedApplications(db *gorm.DB, companies []database.Company, candidates []database.Candidate) {
	if len(companies) == 0 || len(candidates) == 0 {
		return
	}

	var jobs []database.Job
	if err := db.Find(&jobs).Error; err != nil {
		log.Fatalf("load jobs: %v", err)
	}

	statuses := []string{
		database.ApplicationPending,
		database.ApplicationReview,
		database.ApplicationAccepted,
		database.ApplicationRejected,
	}

	for _, candidate := range candidates {
		applyCount := gofakeit.Number(0, 3)
		seen := map[uint]struct{}{}
		for i := 0; i < applyCount; i++ {
			job := jobs[gofakeit.Number(0, len(jobs)-1)]
			if _, dup := seen[job.ID]; dup {
				continue
			}
			seen[job.ID] = struct{}{}

			application := database.Application{
				JobID:       job.ID,
				CandidateID: candidate.ID,
				Status:      statuses[gofakeit.Number(0, len(statuses)-1)],
				CoverLetter: gofakeit.Paragraph(1, 2, 10, " "),
			}
			if err := db.Create(&application).Error; err != nil {
				log.Fatalf("create application: %v", err)
			}
		}
	}
}

func seedTemplates(db *gorm.DB) {
	layouts := []string{resume.LayoutModern, resume.LayoutClassic, resume.LayoutCreative, resume.LayoutMinimalist}
	names := map[string]string{
		resume.LayoutModern:     "Moderne",
		resume.LayoutClassic:    "Classique",
		resume.LayoutCreative:   "Créatif",
		resume.LayoutMinimalist: "Minimaliste",
	}

	for _, layout := range layouts {
		structure, err := json.Marshal(resume.TemplateStructure{
			Sections: []string{"personal", "experience", "education", "skills", "projects", "languages", "certifications"},
			Layout:   layout,
		})
		if err != nil {
			log.Fatalf("encode template structure: %v", err)
		}

		tmpl := database.ResumeTemplate{
			Name:      names[layout],
			Category:  "standard",
			Structure: datatypes.JSON(structure),
			IsPublic:  true,
		}
		if err := db.Create(&tmpl).Error; err != nil {
			log.Fatalf("create template: %v", err)
		}
	}
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
