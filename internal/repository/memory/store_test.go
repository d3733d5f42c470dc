package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/repository"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Users().Create(ctx, &model.User{ID: "emp", Email: "emp@example.com", Name: "Emp", Role: model.RoleEmployer, CreatedAt: now}))
	require.NoError(t, s.Users().Create(ctx, &model.User{ID: "seeker", Email: "s@example.com", Name: "Seeker", Role: model.RoleJobSeeker, CreatedAt: now}))
	require.NoError(t, s.Jobs().Create(ctx, &model.Job{ID: "job-1", EmployerID: "emp", Title: "Go", IsActive: true, CreatedAt: now}))
}

// 同一(求人, 応募者)への並行応募はちょうど1件だけ成功する
func TestApplicationRepo_ConcurrentCreate_ExactlyOne(t *testing.T) {
	s := NewStore()
	seed(t, s)

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Applications().Create(context.Background(), &model.Application{
				ID: fmt.Sprintf("a-%d", i), JobID: "job-1", ApplicantID: "seeker", Status: model.StatusPending,
			})
			switch err {
			case nil:
				ok.Add(1)
			case repository.ErrDuplicate:
				dup.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 49, dup.Load())
}

func TestApplicationRepo_Create_UnknownJob(t *testing.T) {
	s := NewStore()
	err := s.Applications().Create(context.Background(), &model.Application{ID: "a", JobID: "nope", ApplicantID: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// 求人削除後は応募が残らず、同じ応募者が別の求人に再応募できる
func TestJobRepo_DeleteCascade(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Applications().Create(ctx, &model.Application{ID: "a-1", JobID: "job-1", ApplicantID: "seeker"}))

	n, err := s.Jobs().DeleteCascade(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Applications().FindByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.Applications().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.Jobs().DeleteCascade(ctx, "job-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo_DeleteCascade_RemovesOwnedJobsAndApplications(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Applications().Create(ctx, &model.Application{ID: "a-1", JobID: "job-1", ApplicantID: "seeker"}))

	res, err := s.Users().DeleteCascade(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Jobs)
	assert.Equal(t, 1, res.Applications)

	u, _ := s.Users().FindByEmail(ctx, "emp@example.com")
	assert.Nil(t, u)
	j, _ := s.Jobs().FindByID(ctx, "job-1")
	assert.Nil(t, j)
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Users().Create(context.Background(), &model.User{ID: "other", Email: "emp@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

// 更新でEmployerIDは変更されない
func TestJobRepo_Update_KeepsEmployer(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Jobs().Update(ctx, &model.Job{ID: "job-1", EmployerID: "intruder", Title: "Rust"}))

	j, err := s.Jobs().FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "emp", j.EmployerID)
	assert.Equal(t, "Rust", j.Title)
}

// 読み取り時に求人企業の名前と会社名が付与される
func TestJobRepo_AttachesEmployer(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.Users().UpdateProfile(ctx, &model.User{ID: "emp", Name: "Emp", Profile: model.Profile{Company: "Acme Inc."}}))

	j, err := s.Jobs().FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobEmployer{Name: "Emp", Company: "Acme Inc."}, j.Employer)

	jobs, _, err := s.Jobs().List(ctx, model.JobFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme Inc.", jobs[0].Employer.Company)
}

func TestApplicationRepo_ListViews_JoinedAndNewestFirst(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.Jobs().Create(ctx, &model.Job{ID: "job-2", EmployerID: "emp", Title: "SRE", CreatedAt: base}))
	require.NoError(t, s.Applications().Create(ctx, &model.Application{ID: "a-old", JobID: "job-1", ApplicantID: "seeker", CreatedAt: base}))
	require.NoError(t, s.Applications().Create(ctx, &model.Application{ID: "a-new", JobID: "job-2", ApplicantID: "seeker", CreatedAt: base.Add(time.Minute)}))

	views, err := s.Applications().ListByApplicant(ctx, "seeker")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "a-new", views[0].ID)
	assert.Equal(t, "SRE", views[0].JobTitle)
	assert.Equal(t, "Seeker", views[0].ApplicantName)

	byJob, err := s.Applications().ListByJobIDs(ctx, []string{"job-1"})
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, "a-old", byJob[0].ID)
}

func TestJobRepo_List_PaginatesActive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 15; i++ {
		require.NoError(t, s.Jobs().Create(ctx, &model.Job{
			ID: fmt.Sprintf("job-%02d", i), EmployerID: "emp", IsActive: i%5 != 0,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	jobs, total, err := s.Jobs().List(ctx, model.JobFilter{ActiveOnly: true}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, jobs, 2)
}
