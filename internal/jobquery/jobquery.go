// Package jobquery は求人一覧の検索条件とページングを扱う。
//
// PostgreSQL向けのWHERE句生成(Build)とインメモリ向けの判定(Match)は
// 同じ条件セマンティクスを持つ。並び順はどちらも created_at DESC, id DESC。
package jobquery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/skillbridge/internal/model"
)

const (
	// DefaultPageSize はlimit未指定時の1ページあたりの件数。
	DefaultPageSize = 10
	// MaxPageSize は1ページあたりの最大件数。
	MaxPageSize = 100
)

// OrderBy は求人一覧の並び順。
const OrderBy = "created_at DESC, id DESC"

// Normalize はページ番号とページサイズを正規化する。
// page < 1 は1、size < 1 はDefaultPageSize、MaxPageSize超過はMaxPageSizeに丸める。
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Offset は正規化済みのページ番号とサイズからOFFSETを返す。
func Offset(page, size int) int {
	return (page - 1) * size
}

// TotalPages は総件数からページ数を返す。
func TotalPages(total, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Clause はWHERE句とそのプレースホルダ引数。
type Clause struct {
	Where string // 条件がない場合は空文字列。先頭に "WHERE " を含む。
	Args  []any
}

// Build は検索条件からWHERE句を組み立てる。
// プレースホルダは $1 から順に採番する。
func Build(f model.JobFilter) Clause {
	var conds []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := next("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR company ILIKE %s OR description ILIKE %s)", p, p, p))
	}
	if f.Type != "" {
		conds = append(conds, "type = "+next(string(f.Type)))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(f.Category))
	}
	if f.EmployerID != "" {
		conds = append(conds, "employer_id = "+next(f.EmployerID))
	}

	if len(conds) == 0 {
		return Clause{}
	}
	return Clause{Where: "WHERE " + strings.Join(conds, " AND "), Args: args}
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
// 検索語はリテラルとして扱う。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Match は求人が検索条件に一致するかを返す。
func Match(j *model.Job, f model.JobFilter) bool {
	if f.ActiveOnly && !j.IsActive {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		needle := strings.ToLower(s)
		if !strings.Contains(strings.ToLower(j.Title), needle) &&
			!strings.Contains(strings.ToLower(j.Company), needle) &&
			!strings.Contains(strings.ToLower(j.Description), needle) {
			return false
		}
	}
	if f.Type != "" && j.Type != f.Type {
		return false
	}
	if f.Category != "" && j.Category != f.Category {
		return false
	}
	if f.EmployerID != "" && j.EmployerID != f.EmployerID {
		return false
	}
	return true
}

// SortNewestFirst は求人を created_at DESC, id DESC で並べ替える。
func SortNewestFirst(jobs []*model.Job) {
	sort.SliceStable(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.After(jobs[b].CreatedAt)
		}
		return jobs[a].ID > jobs[b].ID
	})
}

// Paginate は並べ替え済みの求人スライスから指定ページを切り出す。
func Paginate(jobs []*model.Job, page, size int) []*model.Job {
	start := Offset(page, size)
	if start >= len(jobs) {
		return []*model.Job{}
	}
	end := start + size
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[start:end]
}
