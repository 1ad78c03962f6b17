// Package store provides the gorm-backed persistence layer. Every query is
// scoped by tenant id; tenant isolation is enforced here, not in handlers.
package store

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing record of a given kind ("client",
// "notification", "tenant") and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot find %s with specified identifiers %s", e.Kind, e.ID)
}

func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is a missing-record error from any store.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
