package database

import "time"

// Operation names reported to an Observer.
const (
	OpQuery       = "query"
	OpUpdate      = "update"
	OpBatchUpdate = "batch_update"
	OpBegin       = "begin"
	OpCommit      = "commit"
	OpRollback    = "rollback"
	OpDDL         = "ddl"
	OpBackup      = "backup"
	OpRestore     = "restore"
	OpCommand     = "command"
)

// OperationContext describes one completed driver call.
type OperationContext struct {
	Driver    string
	Kind      Kind
	Operation string
	// Statement is the SQL text, key pattern or collection name involved.
	Statement string
	Duration  time.Duration
	Err       error
	// Rows is the number of rows returned or affected, when known.
	Rows int64
}

// Observer receives every driver operation. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(op OperationContext)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op OperationContext)

func (f ObserverFunc) ObserveOperation(op OperationContext) { f(op) }
