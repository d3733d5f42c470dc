package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound は更新・削除対象が存在しないことを表す。
	ErrNotFound = errors.New("record not found")
)

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
	pqInvalidTextRepr     = pq.ErrorCode("22P02")
)

// translatePQError はドライバのエラーをリポジトリのセンチネルエラーに変換する。
// UUIDとして解釈できないID(22P02)はどの行にも一致しないため、ErrNotFoundとする。
// 対応しないエラーはそのまま返す。
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation, pqInvalidTextRepr:
		return ErrNotFound
	}
	return err
}

// isMissing は対象行が存在しないことを示すエラーかどうかを返す。
// 結果行なしに加え、不正なIDによる型変換エラーも含む。
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(translatePQError(err), ErrNotFound)
}

// IsUnavailable は永続化層に到達できないことを示すエラーかどうかを返す。
// 接続断、タイムアウト、PostgreSQLの接続系エラー(08xxx)やシャットダウン(57P01-57P03)が該当する。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
	}
	return false
}
