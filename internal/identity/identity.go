// Package identity derives the deterministic keys that make store and review
// writes idempotent.
//
// Every free-text field goes through NormalizeText before it is hashed, so
// two crawls that differ only in casing or whitespace map to the same row.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText collapses whitespace runs to one space, trims, and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " ")))
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// StoreKey identifies a store by its normalized name and address.
func StoreKey(name, address string) string {
	return digest(NormalizeText(name), NormalizeText(address))
}

// ReviewHash identifies a review by owning store, source, and normalized text.
func ReviewHash(storeID uint, source, text string) string {
	return digest(strconv.FormatUint(uint64(storeID), 10), NormalizeText(source), NormalizeText(text))
}
