package validator

import (
	"errors"
	"strings"
)

// Numeric is satisfied by every built-in integer and float type.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ValidationError is a single failed rule. Code is a stable machine-readable
// name such as "required" or "max_length".
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

// ValidationErrors collects every failed rule of one Apply call, in rule order.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for i, e := range ve {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(e.Field + ": " + e.Message)
	}
	return b.String()
}

// Fields groups messages by field, keeping rule order within each field.
func (ve ValidationErrors) Fields() map[string][]string {
	fields := make(map[string][]string, len(ve))
	for _, e := range ve {
		fields[e.Field] = append(fields[e.Field], e.Message)
	}
	return fields
}

// Rule is a lazily evaluated check and the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply evaluates every rule; it does not stop at the first failure. It
// returns nil when all pass.
func Apply(rules ...Rule) error {
	var failed ValidationErrors
	for _, r := range rules {
		if !r.Check() {
			failed = append(failed, r.Error)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return failed
}

// As returns the ValidationErrors in err's chain.
func As(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	ok := errors.As(err, &ve)
	return ve, ok
}
