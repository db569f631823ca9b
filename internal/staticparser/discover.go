package staticparser

import "os"

// DiscoverFiles statically parses every path, tolerating per-file failures
// (spec.md §4.7: "discovery is tolerant"). The result order matches paths.
func DiscoverFiles(paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			results[i] = FileResult{Path: path, Error: err}
			continue
		}
		results[i] = DiscoverFile(path, data)
	}
	return results
}

// TotalSpecs counts every spec node (including nested contexts) in a tree.
func TotalSpecs(root *Node) int {
	if root == nil {
		return 0
	}
	total := len(root.Specs)
	for _, child := range root.Children {
		total += TotalSpecs(child)
	}
	return total
}
