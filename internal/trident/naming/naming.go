// Package naming derives per-module label prefixes and program-hash
// digests. These are the two places Trident needs a stable, collision
// resistant name derived from structural input rather than from the
// front end.
package naming

import (
	"strings"

	"golang.org/x/crypto/blake2b"
)

// MangledPrefix turns a dotted module name ("m1.m2") into the prefix the
// linker stitches onto every label the module defines ("m1_m2__"), per
// the label-mangling rule applied before linking.
func MangledPrefix(moduleName string) string {
	parts := strings.Split(moduleName, ".")
	return strings.Join(parts, "_") + "__"
}

// MangleLabel applies prefix to a user-visible label name ("foo"),
// producing the mangled definition/call-target text ("m1_m2__foo").
func MangleLabel(prefix, label string) string {
	return prefix + strings.TrimPrefix(label, "__")
}

// ProgramDigest hashes a ProofBlock's body text with blake2b-256,
// producing the program_hash metadata the block carries so a backend
// can assert it in-circuit. body is the already-lowered assembly text
// of the block, one line per element, joined with newlines before
// hashing so the digest is stable across Go slice representations of
// the same text.
func ProgramDigest(bodyLines []string) [32]byte {
	joined := strings.Join(bodyLines, "\n")
	return blake2b.Sum256([]byte(joined))
}
