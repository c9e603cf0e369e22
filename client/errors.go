package client

import "github.com/pkg/errors"

// ErrForeignObject is returned when a property value would reference
// an Object created by a different Table, per spec.md §9's
// "Session ↔ Table ↔ Object coupling" design note: objects identify
// their owning table by value, and the table validates ownership at
// property-set time.
var ErrForeignObject = errors.New("smalltable/client: object belongs to a different table")

// ErrNoRoot is returned by RootObject when the named root is unbound.
var ErrNoRoot = errors.New("smalltable/client: root not bound")
