package dataview

import "errors"

// Configuration errors. They are returned wrapped with context; match them
// with errors.Is.
var (
	ErrMissingID          = errors.New("each item must have a non-null unique id")
	ErrDuplicateID        = errors.New("item ids must be unique")
	ErrInvalidID          = errors.New("invalid or unknown id")
	ErrNoSortComparer     = errors.New("sorted insert requires a sort comparer, call Sort first")
	ErrInvalidGroupLevel  = errors.New("grouping level out of range")
	ErrInvalidGroupingDef = errors.New("grouping needs a field or a getter")
)
