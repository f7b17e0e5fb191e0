// internal/dbaccess/errors.go
package dbaccess

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrUnsupportedDatabaseType = errors.New("unsupported database type")
	ErrQueryTimeout            = errors.New("query timed out")
)

// DatabaseError is a failure reported by the target database. Code and
// Position are filled when the driver exposes them.
type DatabaseError struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Position int    `json:"position,omitempty"`
	Err      error  `json:"-"`
}

func (e *DatabaseError) Error() string {
	return e.Message
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// newDatabaseError converts a driver error into a *DatabaseError.
func newDatabaseError(err error) *DatabaseError {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return &DatabaseError{
			Message: sqliteErr.Error(),
			Code:    strconv.Itoa(int(sqliteErr.ExtendedCode)),
			Err:     err,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		position, _ := strconv.Atoi(pqErr.Position)
		return &DatabaseError{
			Message:  pqErr.Message,
			Code:     string(pqErr.Code),
			Position: position,
			Err:      err,
		}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return &DatabaseError{
			Message: mysqlErr.Message,
			Code:    strconv.Itoa(int(mysqlErr.Number)),
			Err:     err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &DatabaseError{Message: ErrQueryTimeout.Error(), Err: errors.Join(ErrQueryTimeout, err)}
	}

	return &DatabaseError{Message: err.Error(), Err: err}
}
