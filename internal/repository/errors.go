package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the
// repository. It abstracts the underlying storage from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects an insert,
// e.g. registering a username twice or assigning the same athlete to a
// user twice.
var ErrDuplicate = errors.New("record already exists")
