package filter

import "os"

// readOrEmpty reads a file for spec-counting purposes; an unreadable file
// contributes zero specs rather than aborting the whole partition (mirrors
// the Static Parser's tolerant-of-failure contract, spec.md §4.7).
func readOrEmpty(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}
