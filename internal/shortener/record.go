package shortener

import "fmt"

// Record is a live mapping between an original URL and its short keyword.
type Record struct {
	Original string
	Keyword  string
}

// Field selects one side of a Record.
type Field int

const (
	// FieldOriginal is the protocol-qualified original URL.
	FieldOriginal Field = iota + 1
	// FieldShort is the short keyword.
	FieldShort
)

// ParseField converts the public names "original" and "short" into a Field.
func ParseField(name string) (Field, error) {
	switch name {
	case "original", "orig":
		return FieldOriginal, nil
	case "short":
		return FieldShort, nil
	default:
		return 0, fmt.Errorf("unknown record field %q", name)
	}
}

func (f Field) String() string {
	switch f {
	case FieldOriginal:
		return "original"
	case FieldShort:
		return "short"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Of reads the field from a record.
func (f Field) Of(r Record) string {
	if f == FieldOriginal {
		return r.Original
	}

	return r.Keyword
}
