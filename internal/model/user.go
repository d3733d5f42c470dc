// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role はユーザーのロールを表す。作成後は変更できない。
type Role string

const (
	RoleJobSeeker Role = "jobSeeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Profile はユーザーの公開プロフィール。
// Company、Websiteは主に求人企業向けの項目。
type Profile struct {
	Bio        string   `json:"bio"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Education  string   `json:"education"`
	Resume     string   `json:"resume"`
	Company    string   `json:"company"`
	Website    string   `json:"website"`
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は認証済みの操作主体を表す。
// 認証ミドルウェアが解決し、各サービスに明示的に渡される。
type Identity struct {
	ID   string
	Role Role
}

// Identity はユーザーから操作主体を生成する。
func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, Role: u.Role}
}

// HashPassword は平文パスワードをbcryptでハッシュ化する。
// costが範囲外の場合はbcrypt.DefaultCostを使う。
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードが保存済みハッシュと一致するかを返す。
func (u *User) VerifyPassword(plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}
