// Package policy はロールと所有関係に基づく認可ポリシーを提供する。
//
// 評価順序は常に ロール → 存在 → 所有 の順。
// ロールが許可されていない操作主体は対象リソースの取得前に拒否される。
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hitoshi/skillbridge/internal/model"
)

// Action は認可対象の操作。
type Action string

const (
	ActionJobList     Action = "job:list"
	ActionJobGet      Action = "job:get"
	ActionJobCreate   Action = "job:create"
	ActionJobListMine Action = "job:list_mine"
	ActionJobListAll  Action = "job:list_all"
	ActionJobUpdate   Action = "job:update"
	ActionJobDelete   Action = "job:delete"

	ActionApplicationApply        Action = "application:apply"
	ActionApplicationListMine     Action = "application:list_mine"
	ActionApplicationListEmployer Action = "application:list_employer"
	ActionApplicationListAll      Action = "application:list_all"
	ActionApplicationUpdateStatus Action = "application:update_status"
	ActionApplicationDelete       Action = "application:delete"

	ActionUserList      Action = "user:list"
	ActionUserDelete    Action = "user:delete"
	ActionProfileRead   Action = "profile:read"
	ActionProfileUpdate Action = "profile:update"
)

// ResourceKind は所有関係を判定するリソースの種類。
type ResourceKind string

const (
	ResourceJob         ResourceKind = "job"
	ResourceApplication ResourceKind = "application"
)

// RuleKind はルールの種類。
type RuleKind int

const (
	// KindPublic は認証不要。
	KindPublic RuleKind = iota
	// KindAuthenticated は認証済みであれば任意のロールで許可する。
	KindAuthenticated
	// KindRole はロール集合に含まれる操作主体を許可する。
	KindRole
	// KindOwnership はロール集合に含まれ、かつリソースの所有者または管理者である操作主体を許可する。
	KindOwnership
)

// Rule は操作ごとの認可ルール。
type Rule struct {
	Kind     RuleKind
	Roles    []model.Role
	Resource ResourceKind
}

// PublicRule は認証不要のルールを返す。
func PublicRule() Rule { return Rule{Kind: KindPublic} }

// AuthenticatedRule は認証済みの全ロールを許可するルールを返す。
func AuthenticatedRule() Rule { return Rule{Kind: KindAuthenticated} }

// RoleRule は指定ロールのみを許可するルールを返す。
func RoleRule(roles ...model.Role) Rule { return Rule{Kind: KindRole, Roles: roles} }

// OwnershipRule は指定ロールかつリソース所有者(または管理者)を許可するルールを返す。
func OwnershipRule(resource ResourceKind, roles ...model.Role) Rule {
	return Rule{Kind: KindOwnership, Roles: roles, Resource: resource}
}

// DefaultRules は求人ボードの認可表を返す。
func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionJobList:     PublicRule(),
		ActionJobGet:      PublicRule(),
		ActionJobCreate:   RoleRule(model.RoleEmployer, model.RoleAdmin),
		ActionJobListMine: RoleRule(model.RoleEmployer, model.RoleAdmin),
		ActionJobListAll:  RoleRule(model.RoleAdmin),
		ActionJobUpdate:   OwnershipRule(ResourceJob, model.RoleEmployer, model.RoleAdmin),
		ActionJobDelete:   OwnershipRule(ResourceJob, model.RoleEmployer, model.RoleAdmin),

		ActionApplicationApply:        RoleRule(model.RoleJobSeeker),
		ActionApplicationListMine:     RoleRule(model.RoleJobSeeker),
		ActionApplicationListEmployer: RoleRule(model.RoleEmployer),
		ActionApplicationListAll:      RoleRule(model.RoleAdmin),
		ActionApplicationUpdateStatus: OwnershipRule(ResourceApplication, model.RoleEmployer, model.RoleAdmin),
		ActionApplicationDelete:       RoleRule(model.RoleAdmin),

		ActionUserList:      RoleRule(model.RoleAdmin),
		ActionUserDelete:    RoleRule(model.RoleAdmin),
		ActionProfileRead:   AuthenticatedRule(),
		ActionProfileUpdate: AuthenticatedRule(),
	}
}

// Reason は判定理由。
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRole            Reason = "role_not_permitted"
	ReasonNotOwner        Reason = "not_owner"
	ReasonMissing         Reason = "resource_missing"
	ReasonUnknownAction   Reason = "unknown_action"
)

// Decision は認可判定の結果。
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Resource は所有関係判定に使うリソース情報。
type Resource struct {
	Kind    ResourceKind
	ID      string
	OwnerID string
}

// OwnerResolver はリソースの所有者を解決する。
// リソースが存在しない場合はfound=falseを返す。
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, kind ResourceKind, id string) (ownerID string, found bool, err error)
}

// DenialRecorder は拒否された認可を記録する。
type DenialRecorder interface {
	RecordAuthorizationDenied(action string)
}

// Policy は認可表と所有者解決を保持する。
type Policy struct {
	rules    map[Action]Rule
	resolver OwnerResolver
	recorder DenialRecorder
}

// New はPolicyを生成する。recorderはnilでもよい。
func New(rules map[Action]Rule, resolver OwnerResolver, recorder DenialRecorder) *Policy {
	return &Policy{rules: rules, resolver: resolver, recorder: recorder}
}

// Rule は操作に対応するルールを返す。
func (p *Policy) Rule(action Action) (Rule, bool) {
	r, ok := p.rules[action]
	return r, ok
}

// CanPerform は操作主体が操作を実行できるかを判定する。副作用はない。
// 所有関係ルールでresがnilの場合はリソース不在として扱う。
func (p *Policy) CanPerform(identity *model.Identity, action Action, res *Resource) Decision {
	rule, ok := p.rules[action]
	if !ok {
		return Decision{Reason: ReasonUnknownAction}
	}
	return evaluate(rule, identity, res)
}

func evaluate(rule Rule, identity *model.Identity, res *Resource) Decision {
	if rule.Kind == KindPublic {
		return Decision{Allowed: true, Reason: ReasonAllowed}
	}
	if identity == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}

	switch rule.Kind {
	case KindAuthenticated:
		return Decision{Allowed: true, Reason: ReasonAllowed}
	case KindRole:
		if !slices.Contains(rule.Roles, identity.Role) {
			return Decision{Reason: ReasonRole}
		}
		return Decision{Allowed: true, Reason: ReasonAllowed}
	case KindOwnership:
		if !slices.Contains(rule.Roles, identity.Role) {
			return Decision{Reason: ReasonRole}
		}
		if res == nil {
			return Decision{Reason: ReasonMissing}
		}
		if identity.Role == model.RoleAdmin || res.OwnerID == identity.ID {
			return Decision{Allowed: true, Reason: ReasonAllowed}
		}
		return Decision{Reason: ReasonNotOwner}
	}
	return Decision{Reason: ReasonUnknownAction}
}

// Authorize はロールのみを評価する入口の判定。
// 所有関係ルールの操作はロール集合だけを検査し、所有者の確認はAuthorizeResourceかCheckで行う。
func (p *Policy) Authorize(identity *model.Identity, action Action) error {
	rule, ok := p.rules[action]
	if !ok {
		return p.deny(identity, action, Decision{Reason: ReasonUnknownAction}, nil)
	}
	if rule.Kind == KindOwnership {
		rule = RoleRule(rule.Roles...)
	}
	if d := evaluate(rule, identity, nil); !d.Allowed {
		return p.deny(identity, action, d, nil)
	}
	return nil
}

// Check は取得済みのリソースに対して判定し、拒否時はAPIErrorを返す。
func (p *Policy) Check(identity *model.Identity, action Action, res *Resource) error {
	d := p.CanPerform(identity, action, res)
	if !d.Allowed {
		return p.deny(identity, action, d, res)
	}
	return nil
}

// AuthorizeResource はロール、存在、所有の順にリソース単位の認可を行う。
// リソースが存在しない場合はForbiddenより先にNotFoundを返す。
func (p *Policy) AuthorizeResource(ctx context.Context, identity *model.Identity, action Action, id string) error {
	if err := p.Authorize(identity, action); err != nil {
		return err
	}

	rule := p.rules[action]
	if rule.Kind != KindOwnership {
		return nil
	}

	ownerID, found, err := p.resolver.ResolveOwner(ctx, rule.Resource, id)
	if err != nil {
		return fmt.Errorf("failed to resolve owner of %s %s: %w", rule.Resource, id, err)
	}
	if !found {
		return notFound(rule.Resource, id)
	}
	return p.Check(identity, action, &Resource{Kind: rule.Resource, ID: id, OwnerID: ownerID})
}

func (p *Policy) deny(identity *model.Identity, action Action, d Decision, res *Resource) error {
	if d.Reason == ReasonMissing {
		kind := p.rules[action].Resource
		id := ""
		if res != nil {
			id = res.ID
		}
		return notFound(kind, id)
	}

	if p.recorder != nil {
		p.recorder.RecordAuthorizationDenied(string(action))
	}

	attrs := []any{
		slog.String("action", string(action)),
		slog.String("reason", string(d.Reason)),
	}
	if identity != nil {
		attrs = append(attrs, slog.String("user_id", identity.ID), slog.String("role", string(identity.Role)))
	}
	slog.Warn("authorization denied", attrs...)

	if d.Reason == ReasonUnauthenticated {
		return model.NewUnauthenticatedError()
	}
	return model.NewForbiddenError(string(action))
}

func notFound(kind ResourceKind, id string) error {
	if kind == ResourceApplication {
		return model.NewApplicationNotFoundError(id)
	}
	return model.NewJobNotFoundError(id)
}
