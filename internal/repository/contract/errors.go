package contract

import "errors"

// ErrDuplicateOpenTransaction is returned by TransactionRepository.Create when
// the storage-level uniqueness constraint on open transactions rejects the
// insert. Callers resolve the race by re-reading the surviving row.
var ErrDuplicateOpenTransaction = errors.New("open payment transaction already exists for subscription")
