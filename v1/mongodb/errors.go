package mongodb

import (
	"errors"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"go.mongodb.org/mongo-driver/mongo"
)

const namespaceExists = 48

// translate wraps a driver error in a StatementError naming the operation,
// classified where the failure has a database sentinel.
func translate(operation, collection string, err error) error {
	if err == nil {
		return nil
	}

	var class error
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		class = database.ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		class = database.ErrDuplicateKey
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		class = database.ErrRetryable
	}
	return &database.StatementError{Statement: operation + " " + collection, Err: err, Class: class}
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists
}
