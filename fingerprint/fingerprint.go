// Package fingerprint computes content digests of whole images. They are
// shown to the operator for provenance and never drive a patch decision.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	SHA3256 Algorithm = "sha3-256"
	BLAKE3  Algorithm = "blake3"

	Default = SHA256
)

var algorithms = map[Algorithm]func() hash.Hash{
	SHA256:  sha256.New,
	SHA3256: sha3.New256,
	BLAKE3:  func() hash.Hash { return blake3.New() },
}

func Algorithms() []Algorithm {
	var result []Algorithm
	for a := range algorithms {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func Parse(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(name))
	if _, ok := algorithms[a]; !ok {
		return "", fmt.Errorf("unknown digest algorithm %q", name)
	}
	return a, nil
}

// Sum returns the lowercase hex digest of data. All supported algorithms
// produce 32 byte digests.
func Sum(a Algorithm, data []byte) (string, error) {
	newHash, ok := algorithms[a]
	if !ok {
		return "", fmt.Errorf("unknown digest algorithm %q", a)
	}

	h := newHash()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
