// Package memory はリポジトリインターフェースのインメモリ実装を提供する。
//
// 3つのリポジトリは1つのStoreとミューテックスを共有する。
// 応募の一意性検査と挿入、カスケード削除は単一のクリティカルセクションで行う。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hitoshi/skillbridge/internal/jobquery"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/repository"
)

type appKey struct {
	jobID       string
	applicantID string
}

// Store はユーザー、求人、応募を保持するインメモリストア。
type Store struct {
	mu sync.RWMutex

	users        map[string]*model.User
	emails       map[string]string // email -> user id
	jobs         map[string]*model.Job
	applications map[string]*model.Application
	appIndex     map[appKey]string // (job, applicant) -> application id
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		users:        make(map[string]*model.User),
		emails:       make(map[string]string),
		jobs:         make(map[string]*model.Job),
		applications: make(map[string]*model.Application),
		appIndex:     make(map[appKey]string),
	}
}

// Users はUserRepositoryとしてのビューを返す。
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Jobs はJobRepositoryとしてのビューを返す。
func (s *Store) Jobs() repository.JobRepository { return &jobRepo{s: s} }

// Applications はApplicationRepositoryとしてのビューを返す。
func (s *Store) Applications() repository.ApplicationRepository { return &applicationRepo{s: s} }

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Profile.Skills = append([]string(nil), u.Profile.Skills...)
	return &c
}

func cloneJob(j *model.Job) *model.Job {
	c := *j
	c.Requirements = append([]string(nil), j.Requirements...)
	c.Skills = append([]string(nil), j.Skills...)
	return &c
}

func cloneApplication(a *model.Application) *model.Application {
	c := *a
	return &c
}

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[email]
	if !ok {
		return nil, nil
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.emails[u.Email]; exists {
		return repository.ErrDuplicate
	}
	if _, exists := r.s.users[u.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.users[u.ID] = cloneUser(u)
	r.s.emails[u.Email] = u.ID
	return nil
}

func (r *userRepo) UpdateProfile(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = u.Name
	cur.Profile = u.Profile
	cur.Profile.Skills = append([]string(nil), u.Profile.Skills...)
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *userRepo) List(_ context.Context) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(a, b int) bool {
		if !users[a].CreatedAt.Equal(users[b].CreatedAt) {
			return users[a].CreatedAt.After(users[b].CreatedAt)
		}
		return users[a].ID > users[b].ID
	})
	return users, nil
}

func (r *userRepo) DeleteCascade(_ context.Context, id string) (*repository.UserCascadeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	res := &repository.UserCascadeResult{}
	owned := make(map[string]bool)
	for jobID, j := range r.s.jobs {
		if j.EmployerID == id {
			owned[jobID] = true
		}
	}
	for appID, a := range r.s.applications {
		if a.ApplicantID == id || owned[a.JobID] {
			r.s.deleteApplicationLocked(appID)
			res.Applications++
		}
	}
	for jobID := range owned {
		delete(r.s.jobs, jobID)
		res.Jobs++
	}
	delete(r.s.emails, u.Email)
	delete(r.s.users, id)
	return res, nil
}

// --- jobs ---

type jobRepo struct{ s *Store }

func (r *jobRepo) FindByID(_ context.Context, id string) (*model.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, nil
	}
	return r.withEmployerLocked(cloneJob(j)), nil
}

// withEmployerLocked は求人企業の名前と会社名を付与する。
func (r *jobRepo) withEmployerLocked(j *model.Job) *model.Job {
	j.Employer = model.JobEmployer{}
	if u, ok := r.s.users[j.EmployerID]; ok {
		j.Employer = model.JobEmployer{Name: u.Name, Company: u.Profile.Company}
	}
	return j
}

func (r *jobRepo) Create(_ context.Context, j *model.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.jobs[j.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.jobs[j.ID] = cloneJob(j)
	return nil
}

func (r *jobRepo) Update(_ context.Context, j *model.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.jobs[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneJob(j)
	updated.EmployerID = cur.EmployerID
	updated.CreatedAt = cur.CreatedAt
	r.s.jobs[j.ID] = updated
	return nil
}

func (r *jobRepo) matching(filter model.JobFilter) []*model.Job {
	jobs := []*model.Job{}
	for _, j := range r.s.jobs {
		if jobquery.Match(j, filter) {
			jobs = append(jobs, r.withEmployerLocked(cloneJob(j)))
		}
	}
	jobquery.SortNewestFirst(jobs)
	return jobs
}

func (r *jobRepo) List(_ context.Context, filter model.JobFilter, page, size int) ([]*model.Job, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.matching(filter)
	return jobquery.Paginate(all, page, size), len(all), nil
}

func (r *jobRepo) ListAll(_ context.Context, filter model.JobFilter) ([]*model.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.matching(filter), nil
}

func (r *jobRepo) ListIDsByEmployer(_ context.Context, employerID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := []string{}
	for id, j := range r.s.jobs {
		if j.EmployerID == employerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *jobRepo) DeleteCascade(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return 0, repository.ErrNotFound
	}
	n := 0
	for appID, a := range r.s.applications {
		if a.JobID == id {
			r.s.deleteApplicationLocked(appID)
			n++
		}
	}
	delete(r.s.jobs, id)
	return n, nil
}

// --- applications ---

type applicationRepo struct{ s *Store }

func (r *applicationRepo) FindByID(_ context.Context, id string) (*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, nil
	}
	return cloneApplication(a), nil
}

func (r *applicationRepo) Create(_ context.Context, a *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[a.JobID]; !ok {
		return repository.ErrNotFound
	}
	key := appKey{jobID: a.JobID, applicantID: a.ApplicantID}
	if _, exists := r.s.appIndex[key]; exists {
		return repository.ErrDuplicate
	}
	r.s.applications[a.ID] = cloneApplication(a)
	r.s.appIndex[key] = a.ID
	return nil
}

func (r *applicationRepo) Update(_ context.Context, a *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.applications[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = a.Status
	cur.Notes = a.Notes
	cur.UpdatedAt = a.UpdatedAt
	return nil
}

func (r *applicationRepo) ListByApplicant(_ context.Context, applicantID string) ([]*model.ApplicationView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.viewsLocked(func(a *model.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (r *applicationRepo) ListByJobIDs(_ context.Context, jobIDs []string) ([]*model.ApplicationView, error) {
	set := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		set[id] = true
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.viewsLocked(func(a *model.Application) bool { return set[a.JobID] }), nil
}

func (r *applicationRepo) ListAll(_ context.Context) ([]*model.ApplicationView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.viewsLocked(func(*model.Application) bool { return true }), nil
}

func (r *applicationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.deleteApplicationLocked(id)
	return nil
}

// viewsLocked は条件に一致する応募を求人・応募者情報付きで新しい順に返す。読み取りロックを保持して呼ぶこと。
func (s *Store) viewsLocked(keep func(*model.Application) bool) []*model.ApplicationView {
	views := []*model.ApplicationView{}
	for _, a := range s.applications {
		if !keep(a) {
			continue
		}
		v := &model.ApplicationView{Application: *a}
		if j, ok := s.jobs[a.JobID]; ok {
			v.JobTitle, v.JobCompany, v.JobType, v.JobLocation = j.Title, j.Company, j.Type, j.Location
		}
		if u, ok := s.users[a.ApplicantID]; ok {
			v.ApplicantName, v.ApplicantEmail = u.Name, u.Email
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(a, b int) bool {
		if !views[a].CreatedAt.Equal(views[b].CreatedAt) {
			return views[a].CreatedAt.After(views[b].CreatedAt)
		}
		return views[a].ID > views[b].ID
	})
	return views
}

// deleteApplicationLocked は応募と一意インデックスを削除する。書き込みロックを保持して呼ぶこと。
func (s *Store) deleteApplicationLocked(id string) {
	a, ok := s.applications[id]
	if !ok {
		return
	}
	delete(s.appIndex, appKey{jobID: a.JobID, applicantID: a.ApplicantID})
	delete(s.applications, id)
}

// compile-time interface check
var (
	_ repository.UserRepository        = (*userRepo)(nil)
	_ repository.JobRepository         = (*jobRepo)(nil)
	_ repository.ApplicationRepository = (*applicationRepo)(nil)
)
