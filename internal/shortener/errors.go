package shortener

import "errors"

var (
	// ErrIllegalKeyword is returned for custom keywords that are forbidden or not alphanumeric.
	ErrIllegalKeyword = errors.New("keyword is illegal")
	// ErrConflict is returned when a custom keyword already maps to a different URL.
	ErrConflict = errors.New("keyword is occupied")
	// ErrExhausted is returned when the word pool has no unused words left.
	ErrExhausted = errors.New("word pool exhausted")
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("no matching record found")
	// ErrAmbiguous is returned when more than one record matches a lookup that should be unique.
	ErrAmbiguous = errors.New("multiple records found")
	// ErrDuplicateKeyword is returned by a MappingStore when an insert violates keyword uniqueness.
	ErrDuplicateKeyword = errors.New("duplicate keyword")
	// ErrInvalidURL is returned for blank URLs.
	ErrInvalidURL = errors.New("url is empty")
)
