package mariadb

import (
	"errors"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error numbers used for classification.
const (
	errDupEntry            = 1062
	errRowIsReferenced     = 1451
	errNoReferencedRow     = 1452
	errRowIsReferenced2    = 1217
	errNoReferencedRow2    = 1216
	errLockWaitTimeout     = 1205
	errLockDeadlock        = 1213
	errTooManyConnections  = 1040
	errServerShutdown      = 1053
	errConnectionCountFull = 1203
)

// TranslateError classifies go-sql-driver/mysql errors.
func (d *Dialect) TranslateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.ErrRecordNotFound
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return database.ErrRetryable
	}

	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return nil
	}

	switch mysqlErr.Number {
	case errDupEntry:
		return database.ErrDuplicateKey
	case errRowIsReferenced, errNoReferencedRow, errRowIsReferenced2, errNoReferencedRow2:
		return database.ErrForeignKey
	case errLockWaitTimeout, errLockDeadlock, errTooManyConnections, errServerShutdown, errConnectionCountFull:
		return database.ErrRetryable
	}
	return nil
}
