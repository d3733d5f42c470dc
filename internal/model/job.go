package model

import "time"

// JobType は雇用形態を表す。
type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeInternship JobType = "Internship"
	JobTypeContract   JobType = "Contract"
)

// Valid は雇用形態が定義済みの値かどうかを返す。
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract:
		return true
	}
	return false
}

// Job は求人情報を表す。EmployerIDは作成時に操作主体から設定され、以後変更されない。
type Job struct {
	ID           string
	EmployerID   string
	Title        string
	Description  string
	Company      string
	Location     string
	Type         JobType
	Category     string
	Salary       string
	Requirements []string
	Skills       []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Employer は読み取り時に付与する。保存されない。
	Employer JobEmployer
}

// JobEmployer は求人に付与する求人企業の表示用情報。
type JobEmployer struct {
	Name    string
	Company string
}

// JobFilter は求人一覧の検索条件。
// 空文字列のフィールドは条件に含めない。
type JobFilter struct {
	Search     string // title、company、descriptionの部分一致（大文字小文字を区別しない）
	Type       JobType
	Category   string
	EmployerID string
	ActiveOnly bool
}

// JobPage は求人一覧のページング結果。
type JobPage struct {
	Jobs        []*Job
	Total       int
	TotalPages  int
	CurrentPage int
	PageSize    int
}
