package repo

import "github.com/pkg/errors"

// ErrConflict is returned by Commit when the optimistic install loop
// either found a semantic conflict (Delta.Merge refused) or exhausted
// Options.MaxRetry attempts against a moving head. §7 deliberately
// does not distinguish the two cases on this sentinel.
var ErrConflict = errors.New("smalltable/repo: conflict")
