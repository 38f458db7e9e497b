package shortener

import (
	"context"
	"fmt"
)

// ResolutionStatus classifies a lookup.
type ResolutionStatus int

const (
	// NotFound means no record matched.
	NotFound ResolutionStatus = iota
	// Found means exactly one record matched.
	Found
	// Ambiguous means several records matched a lookup expected to be unique.
	Ambiguous
)

func (s ResolutionStatus) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the result of Resolve. Value and Record are only set when Status is Found.
type Resolution struct {
	Status ResolutionStatus
	Value  string
	Record Record
}

// Message is the human readable summary of the resolution.
func (r Resolution) Message() string {
	switch r.Status {
	case Found:
		return "Got one record"
	case Ambiguous:
		return "Multiple found"
	default:
		return "No matching record found"
	}
}

// Err converts a non-Found resolution into ErrNotFound or ErrAmbiguous.
func (r Resolution) Err() error {
	switch r.Status {
	case Found:
		return nil
	case Ambiguous:
		return ErrAmbiguous
	default:
		return ErrNotFound
	}
}

// Resolve looks up value by exact match on the query field and reads the
// response field of the single matching record.
func Resolve(ctx context.Context, store MappingStore, value string, query, response Field) (Resolution, error) {
	if response != FieldOriginal && response != FieldShort {
		return Resolution{}, fmt.Errorf("resolve: invalid response field %v", response)
	}

	var (
		matches []Record
		err     error
	)

	switch query {
	case FieldOriginal:
		matches, err = store.FindByURL(ctx, value)
	case FieldShort:
		matches, err = store.FindByKeyword(ctx, value)
	default:
		return Resolution{}, fmt.Errorf("resolve: invalid query field %v", query)
	}

	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s %q: %w", query, value, err)
	}

	switch len(matches) {
	case 0:
		return Resolution{Status: NotFound}, nil
	case 1:
		return Resolution{Status: Found, Value: response.Of(matches[0]), Record: matches[0]}, nil
	default:
		return Resolution{Status: Ambiguous}, nil
	}
}
