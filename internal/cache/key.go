package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// keyHexLen is the cache key length: 16 hex characters (spec.md §4.2).
const keyHexLen = 16

// ComputeKey builds the cache key described in spec.md §4.2 step 2:
// hash(frameworkVersion || mainPath || sortedFileHashes || hash(preprocessedSource)).
func ComputeKey(frameworkVersion, mainPath string, files []FileHash, preprocessedSource string) string {
	sorted := make([]FileHash, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	sourceHash := HashContent(preprocessedSource)

	var sb strings.Builder
	sb.WriteString(frameworkVersion)
	sb.WriteString("\x00")
	sb.WriteString(mainPath)
	sb.WriteString("\x00")
	for _, f := range sorted {
		sb.WriteString(f.Path)
		sb.WriteString("=")
		sb.WriteString(f.Hash)
		sb.WriteString("\x00")
	}
	sb.WriteString(sourceHash)

	full := HashContent(sb.String())
	return full[:keyHexLen]
}

// HashContent returns the full hex-encoded SHA-256 digest of content.
// Content-based, not mtime-based (spec.md §4.2: "Validation re-hashes every
// source file on each lookup").
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
