package smalltable

import "github.com/pkg/errors"

// InvalidArgument-kind sentinels (§7): a required parameter is
// absent, a property name is duplicated, or a value is of an
// unsupported kind. Reported synchronously at the call that
// introduced the problem, in the manner of the teacher's
// chotki_errors/objects.go sentinel vars built on pkg/errors.
var (
	ErrInvalidValueKind  = errors.New("smalltable: unsupported value kind")
	ErrDuplicateProperty = errors.New("smalltable: duplicate property name")
	ErrEmptyPropertyName = errors.New("smalltable: empty property name")
)
