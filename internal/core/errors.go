package core

import "fmt"

// DataIntegrityError reports a transaction whose participant list and split
// amount list have different lengths.
type DataIntegrityError struct {
	Row          int
	Participants int
	Amounts      int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("row %d: %d participants but %d split amounts", e.Row, e.Participants, e.Amounts)
}

// ValueConversionError reports a split amount token that is not a number.
type ValueConversionError struct {
	Row      int
	Position int
	Token    string
	Err      error
}

func (e *ValueConversionError) Error() string {
	return fmt.Sprintf("row %d position %d: cannot parse split amount %q", e.Row, e.Position, e.Token)
}

func (e *ValueConversionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a target user that never appears as a participant.
type ConfigurationError struct {
	User  string
	Known []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("user %q is not a participant of any transaction (known users: %v)", e.User, e.Known)
}
