// Package address implements OrbitDB-style database addresses: the
// immutable triple of prefix, manifest root hash and human path that
// identifies a database across peers.
package address

import (
	"fmt"
	"strings"
)

const prefix = "orbitdb"

// Address is the immutable identity of a database: a literal prefix, the
// content hash of its manifest, and the human name given at creation.
// Two addresses are equal iff their string forms are equal.
type Address struct {
	Root string
	Path string
}

// Malformed is returned by Parse when the input does not have the shape
// /orbitdb/<root>/<path>.
type Malformed struct {
	Input string
	Why   string
}

func (e *Malformed) Error() string {
	return fmt.Sprintf("address: malformed address %q: %s", e.Input, e.Why)
}

// Parse validates and decodes an OrbitDB address string.
func Parse(s string) (Address, error) {
	parts := strings.Split(s, "/")
	// strings.Split("/orbitdb/<root>/<path>", "/") => ["", "orbitdb", "<root>", "<path>"]
	if len(parts) != 4 || parts[0] != "" {
		return Address{}, &Malformed{Input: s, Why: "expected exactly three non-empty path segments"}
	}
	if parts[1] != prefix {
		return Address{}, &Malformed{Input: s, Why: fmt.Sprintf("first segment must be %q", prefix)}
	}
	root, path := parts[2], parts[3]
	if root == "" {
		return Address{}, &Malformed{Input: s, Why: "root must not be empty"}
	}
	if path == "" {
		return Address{}, &Malformed{Input: s, Why: "path must not be empty"}
	}
	return Address{Root: root, Path: path}, nil
}

// IsValid reports whether s parses as a well-formed address.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String renders the address as /orbitdb/<root>/<path>.
func (a Address) String() string {
	return fmt.Sprintf("/%s/%s/%s", prefix, a.Root, a.Path)
}

// IsZero reports whether a is the zero-value Address.
func (a Address) IsZero() bool {
	return a.Root == "" && a.Path == ""
}
