// Package types provides type definitions for the structured artifacts the
// pipeline stages produce and consume.
package types

// JDAnalysis is the structured representation of a job description.
type JDAnalysis struct {
	RoleTitle        string   `json:"role_title"`
	Company          string   `json:"company,omitempty"`
	SeniorityLevel   string   `json:"seniority_level,omitempty"`
	MustHaveSkills   []string `json:"must_have_skills"`
	NiceToHaveSkills []string `json:"nice_to_have_skills"`
	NotesForResume   string   `json:"notes_for_resume"`
}

// ExperienceItem is one role in a candidate's history.
type ExperienceItem struct {
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	StartDate string   `json:"start_date,omitempty"` // "Jan 2022"
	EndDate   string   `json:"end_date,omitempty"`   // "Present"
	Location  string   `json:"location,omitempty"`
	Bullets   []string `json:"bullets"`
	Skills    []string `json:"skills,omitempty"`
}

// ExperienceYearsClaim is a verbatim years-of-experience claim from the
// profile text. Kept verbatim so downstream stages never inflate experience.
type ExperienceYearsClaim struct {
	Area      string `json:"area"`       // e.g. "software engineering", "AI/ML"
	YearsText string `json:"years_text"` // e.g. "18+ years"
	Evidence  string `json:"evidence"`   // exact snippet containing the claim
}

// EducationItem is one education entry.
type EducationItem struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Location    string `json:"location,omitempty"`
}

// CertificationItem is one certification entry.
type CertificationItem struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   string `json:"year,omitempty"`
}

// Profile is the canonical, JD-agnostic candidate profile.
type Profile struct {
	FullName              string                 `json:"full_name"`
	Headline              string                 `json:"headline,omitempty"`
	Location              string                 `json:"location,omitempty"`
	Phone                 string                 `json:"phone,omitempty"`
	Email                 string                 `json:"email,omitempty"`
	LinkedInURL           string                 `json:"linkedin_url,omitempty"`
	GitHubURL             string                 `json:"github_url,omitempty"`
	YearsOfExperience     float64                `json:"years_of_experience,omitempty"`
	ExperienceYearsClaims []ExperienceYearsClaim `json:"experience_years_claims,omitempty"`
	CoreSkills            []string               `json:"core_skills"`
	DomainExpertise       []string               `json:"domain_expertise,omitempty"`
	ToolsAndTech          []string               `json:"tools_and_tech,omitempty"`
	Experience            []ExperienceItem       `json:"experience"`
	Education             []string               `json:"education,omitempty"`
	EducationItems        []EducationItem        `json:"education_items,omitempty"`
	Certifications        []CertificationItem    `json:"certifications,omitempty"`
}

// ExperiencePlan decides how one profile experience is used in the resume.
type ExperiencePlan struct {
	ProfileExperienceIndex int      `json:"profile_experience_index"`
	Include                bool     `json:"include"`
	RelevanceScore         float64  `json:"relevance_score"` // 0.0 to 1.0
	TargetBulletCount      int      `json:"target_bullet_count"`
	FocusSkills            []string `json:"focus_skills,omitempty"`
}

// SkillsPlan maps JD skills onto the profile's skills.
type SkillsPlan struct {
	MustHaveCovered    []string `json:"must_have_covered"`
	MustHaveMissing    []string `json:"must_have_missing"`
	NiceToHaveCovered  []string `json:"nice_to_have_covered,omitempty"`
	ExtraProfileSkills []string `json:"extra_profile_skills,omitempty"`
}

// ResumePlan is the matching stage's output: how to tailor the profile to
// the analyzed job description.
type ResumePlan struct {
	TargetTitle     string           `json:"target_title"`
	TargetCompany   string           `json:"target_company,omitempty"`
	SectionsOrder   []string         `json:"sections_order"`
	LengthHint      string           `json:"length_hint"` // "one_page" or "two_pages_ok"
	ExperiencesPlan []ExperiencePlan `json:"experiences_plan"`
	SkillsPlan      SkillsPlan       `json:"skills_plan"`
}

// TailoredBullet is one resume bullet with provenance back to the profile.
type TailoredBullet struct {
	Text string `json:"text"`
	// SourceExperienceIndex indexes into Profile.Experience for traceability.
	// Negative when the bullet has no single source.
	SourceExperienceIndex int `json:"source_experience_index"`
}

// TailoredExperienceItem is one experience entry in the tailored resume.
type TailoredExperienceItem struct {
	Title     string           `json:"title"`
	Company   string           `json:"company"`
	StartDate string           `json:"start_date,omitempty"`
	EndDate   string           `json:"end_date,omitempty"`
	Location  string           `json:"location,omitempty"`
	Bullets   []TailoredBullet `json:"bullets"`
}

// SkillCategory groups skills for display, e.g. "ML / AI & LLMs".
type SkillCategory struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// TailoredResume is the composition stage's output.
type TailoredResume struct {
	FullName    string `json:"full_name"`
	Headline    string `json:"headline,omitempty"`
	Location    string `json:"location,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	GitHubURL   string `json:"github_url,omitempty"`

	Summary        string                   `json:"summary"`
	Skills         []SkillCategory          `json:"skills"`
	Experience     []TailoredExperienceItem `json:"experience"`
	Education      []EducationItem          `json:"education,omitempty"`
	Certifications []CertificationItem      `json:"certifications,omitempty"`

	// ResumeText is an optional flattened Markdown version for preview.
	ResumeText string `json:"resume_text,omitempty"`
}

// QAIssue is one problem the QA stage found in the tailored resume.
type QAIssue struct {
	Severity     string `json:"severity"` // "blocker", "major" or "minor"
	Message      string `json:"message"`
	LocationHint string `json:"location_hint,omitempty"` // e.g. "Experience[0].bullets[2]"
}

// QAReport is the QA stage's structured review of a tailored resume against
// the job description and profile.
type QAReport struct {
	OverallMatchScore float64         `json:"overall_match_score"` // 0 to 100
	MustHaveCoverage  map[string]bool `json:"must_have_coverage"`
	Issues            []QAIssue       `json:"issues"`
	Suggestions       []string        `json:"suggestions,omitempty"`
}

// CoverLetter is a structured cover letter for a specific role and company.
type CoverLetter struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	RoleTitle string `json:"role_title,omitempty"`
	Body      string `json:"body"`
}
