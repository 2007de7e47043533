package domain

// ExtractedJob is one posting pulled off a career page.
type ExtractedJob struct {
	Title          string   `json:"title"`
	Organization   string   `json:"organization,omitempty"`
	Location       string   `json:"location"`
	WorkMode       string   `json:"work_mode,omitempty"` // Remote/Hybrid/Onsite/Unknown
	EmploymentType string   `json:"employment_type,omitempty"`
	Department     string   `json:"department,omitempty"`
	Description    string   `json:"description,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	SalaryRange    string   `json:"salary_range,omitempty"`
	ApplicationURL string   `json:"application_url,omitempty"`
	SourceStrategy string   `json:"source_strategy"`
}

// IsRemote reports whether the location or work mode marks the job remote.
func (j ExtractedJob) IsRemote() bool {
	if j.WorkMode == "Remote" {
		return true
	}
	return containsFold(j.Location, "remote")
}

type Dimension string

const (
	DimSkills     Dimension = "skills"
	DimLocation   Dimension = "location"
	DimExperience Dimension = "experience"
	DimRole       Dimension = "role"
	DimCompany    Dimension = "company"
)

// Dimensions is the fixed scoring order.
var Dimensions = []Dimension{DimSkills, DimLocation, DimExperience, DimRole, DimCompany}

// RankedJob is an ExtractedJob scored against a profile.
type RankedJob struct {
	Job             ExtractedJob          `json:"job"`
	CompanyID       string                `json:"company_id,omitempty"`
	CompanyName     string                `json:"company_name,omitempty"`
	DimensionScores map[Dimension]float64 `json:"dimension_scores"`
	Weights         map[Dimension]float64 `json:"weights"`
	OverallScore    float64               `json:"overall_score"`
	Explanation     string                `json:"explanation"`
	Recommendation  string                `json:"recommendation"`
}
