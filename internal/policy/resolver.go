package policy

import (
	"context"
	"fmt"

	"github.com/hitoshi/skillbridge/internal/repository"
)

// Resolver はリポジトリを使ってリソースの所有者を解決する。
// 求人の所有者は求人企業、応募の所有者はその応募先求人の求人企業。
type Resolver struct {
	jobs repository.JobRepository
	apps repository.ApplicationRepository
}

// NewResolver はResolverを生成する。
func NewResolver(jobs repository.JobRepository, apps repository.ApplicationRepository) *Resolver {
	return &Resolver{jobs: jobs, apps: apps}
}

// ResolveOwner はリソースの所有者IDを返す。
func (r *Resolver) ResolveOwner(ctx context.Context, kind ResourceKind, id string) (string, bool, error) {
	switch kind {
	case ResourceJob:
		return r.jobOwner(ctx, id)
	case ResourceApplication:
		app, err := r.apps.FindByID(ctx, id)
		if err != nil {
			return "", false, err
		}
		if app == nil {
			return "", false, nil
		}
		return r.jobOwner(ctx, app.JobID)
	}
	return "", false, fmt.Errorf("unknown resource kind: %s", kind)
}

func (r *Resolver) jobOwner(ctx context.Context, jobID string) (string, bool, error) {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return "", false, err
	}
	if job == nil {
		return "", false, nil
	}
	return job.EmployerID, true, nil
}

// compile-time interface check
var _ OwnerResolver = (*Resolver)(nil)
