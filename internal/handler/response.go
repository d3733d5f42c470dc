package handler

import (
	"time"

	"github.com/hitoshi/skillbridge/internal/auth"
	"github.com/hitoshi/skillbridge/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      model.Role    `json:"role"`
	Profile   model.Profile `json:"profile"`
	CreatedAt time.Time     `json:"createdAt"`
}

// authResponse は登録、ログインのAPIレスポンス。
type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// jobResponse は求人情報のAPIレスポンス。
type jobResponse struct {
	ID           string        `json:"id"`
	EmployerID   string        `json:"employerId"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Company      string        `json:"company"`
	Location     string        `json:"location"`
	Type         model.JobType `json:"type"`
	Category     string        `json:"category"`
	Salary       string        `json:"salary"`
	Requirements []string      `json:"requirements"`
	Skills       []string      `json:"skills"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	Employer *jobEmployerResponse `json:"employer,omitempty"`
}

type jobEmployerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

// jobPageResponse は求人一覧のAPIレスポンス。
type jobPageResponse struct {
	Jobs        []jobResponse `json:"jobs"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	PageSize    int           `json:"pageSize"`
}

// applicationResponse は応募情報のAPIレスポンス。
type applicationResponse struct {
	ID          string                  `json:"id"`
	JobID       string                  `json:"jobId"`
	ApplicantID string                  `json:"applicantId"`
	CoverLetter string                  `json:"coverLetter"`
	Status      model.ApplicationStatus `json:"status"`
	Notes       string                  `json:"notes"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// applicationViewResponse は一覧表示用の応募情報。
type applicationViewResponse struct {
	applicationResponse
	Job       applicationJobSummary       `json:"job"`
	Applicant applicationApplicantSummary `json:"applicant"`
}

type applicationJobSummary struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Company  string        `json:"company"`
	Type     model.JobType `json:"type"`
	Location string        `json:"location"`
}

type applicationApplicantSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *model.User) userResponse {
	profile := u.Profile
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   profile,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toAuthResponse(res *auth.Result) authResponse {
	return authResponse{Token: res.Token, User: toUserResponse(res.User)}
}

func toJobResponse(j *model.Job) jobResponse {
	res := jobResponse{
		ID:           j.ID,
		EmployerID:   j.EmployerID,
		Title:        j.Title,
		Description:  j.Description,
		Company:      j.Company,
		Location:     j.Location,
		Type:         j.Type,
		Category:     j.Category,
		Salary:       j.Salary,
		Requirements: nonNil(j.Requirements),
		Skills:       nonNil(j.Skills),
		IsActive:     j.IsActive,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.Employer.Name != "" {
		res.Employer = &jobEmployerResponse{ID: j.EmployerID, Name: j.Employer.Name, Company: j.Employer.Company}
	}
	return res
}

func toJobResponses(jobs []*model.Job) []jobResponse {
	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j)
	}
	return out
}

func toJobPageResponse(p *model.JobPage) jobPageResponse {
	return jobPageResponse{
		Jobs:        toJobResponses(p.Jobs),
		Total:       p.Total,
		TotalPages:  p.TotalPages,
		CurrentPage: p.CurrentPage,
		PageSize:    p.PageSize,
	}
}

func toApplicationResponse(a *model.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		ApplicantID: a.ApplicantID,
		CoverLetter: a.CoverLetter,
		Status:      a.Status,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toApplicationViewResponses(views []*model.ApplicationView) []applicationViewResponse {
	out := make([]applicationViewResponse, len(views))
	for i, v := range views {
		out[i] = applicationViewResponse{
			applicationResponse: toApplicationResponse(&v.Application),
			Job: applicationJobSummary{
				ID:       v.JobID,
				Title:    v.JobTitle,
				Company:  v.JobCompany,
				Type:     v.JobType,
				Location: v.JobLocation,
			},
			Applicant: applicationApplicantSummary{
				ID:    v.ApplicantID,
				Name:  v.ApplicantName,
				Email: v.ApplicantEmail,
			},
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
