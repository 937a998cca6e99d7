package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// isUniqueViolation はPostgreSQLの一意制約違反エラーかどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pgerrcode.UniqueViolation
}
