package term

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	domainNode = "groundhog/node/v1"
	domainLink = "groundhog/link/v1"
)

// Field separator inside a hash preimage. Type names and node names never
// contain 0x1F, and child hashes are fixed-width hex, so the preimage is
// unambiguous.
const hashSep = 0x1f

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// hashNode computes the content hash of a node. The name must already be
// normalized (NewNode guarantees it).
func hashNode(typ Type, name string) string {
	data := make([]byte, 0, len(typ.String())+1+len(name))
	data = append(data, typ.String()...)
	data = append(data, hashSep)
	data = append(data, name...)
	return hashWithDomain(domainNode, data)
}

// hashLink computes the content hash of a link from its children's
// hashes. Children are hashed in order; List and friends are positional.
func hashLink(typ Type, out []*Term) string {
	data := make([]byte, 0, len(typ.String())+len(out)*65)
	data = append(data, typ.String()...)
	for _, c := range out {
		data = append(data, hashSep)
		data = append(data, c.hash...)
	}
	return hashWithDomain(domainLink, data)
}

// normalizeName applies NFC normalization. All node names pass through
// here exactly once, at construction, so hashing and display always see
// the same bytes.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}
