package orbitdb

import "errors"

// Sentinel errors surfaced to callers of Create/Open (spec §7). Each is
// wrapped with fmt.Errorf("%w: ...") where a dynamic message is
// required; registry.InvalidType already produces the literal
// "Invalid database type '<tag>'" message and is returned as-is rather
// than wrapped a second time.
var (
	ErrNameIsAddress      = errors.New("orbitdb: name parses as an address")
	ErrAlreadyExists      = errors.New("orbitdb: database already exists")
	ErrTypeMismatch       = errors.New("orbitdb: type mismatch")
	ErrCreateNotSet       = errors.New("orbitdb: create not set")
	ErrTypeMissing        = errors.New("orbitdb: type missing")
	ErrNotFoundLocally    = errors.New("orbitdb: not found locally")
	ErrInvariantViolation = errors.New("orbitdb: invariant violation")
)
