package model

import "time"

// ApplicationStatus は応募のステータスを表す。
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid はステータスが定義済みの値かどうかを返す。
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransition はfromからtoへの遷移が許可されているかを返す。
// 権限のある操作主体であれば、定義済みステータス間の遷移はすべて許可する。
func CanTransition(from, to ApplicationStatus) bool {
	return from.Valid() && to.Valid()
}

// Application は求人への応募を表す。
// (JobID, ApplicantID) の組はストレージ制約により一意。
type Application struct {
	ID          string
	JobID       string
	ApplicantID string
	CoverLetter string
	Status      ApplicationStatus
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationView は一覧表示用に求人と応募者の情報を付加した応募。
type ApplicationView struct {
	Application
	JobTitle       string
	JobCompany     string
	JobType        JobType
	JobLocation    string
	ApplicantName  string
	ApplicantEmail string
}
