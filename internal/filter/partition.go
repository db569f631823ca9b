package filter

import (
	"hash/fnv"
	"sort"

	"github.com/ariel-frischer/draftspec/internal/staticparser"
)

// Strategy selects a partitioning algorithm (spec.md §4.8).
type Strategy int

const (
	// StrategyFile assigns whole files to partitions by a stable hash, with
	// no awareness of how many specs each file contains.
	StrategyFile Strategy = iota
	// StrategySpecCount static-parses every file to count specs and greedily
	// bin-packs files so partitions carry roughly equal spec counts.
	StrategySpecCount
)

// PartitionResult is what the caller's partition contains plus enough
// global information to report balance across all partitions (spec.md
// §4.8: "the total-specs and per-partition-specs counts are returned").
type PartitionResult struct {
	Files            []string
	TotalSpecs       int
	PerPartitionSize []int // spec counts (StrategySpecCount) or file counts (StrategyFile), per partition index
}

// Partition deterministically assigns files to partition index i of k total
// partitions using strategy.
func Partition(files []string, strategy Strategy, i, k int) PartitionResult {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	switch strategy {
	case StrategySpecCount:
		return partitionBySpecCount(sorted, i, k)
	default:
		return partitionByFile(sorted, i, k)
	}
}

func partitionByFile(files []string, i, k int) PartitionResult {
	sizes := make([]int, k)
	var mine []string

	for _, f := range files {
		bucket := int(hashFile(f) % uint32(k))
		sizes[bucket]++
		if bucket == i {
			mine = append(mine, f)
		}
	}

	return PartitionResult{Files: mine, TotalSpecs: len(files), PerPartitionSize: sizes}
}

func partitionBySpecCount(files []string, i, k int) PartitionResult {
	type fileLoad struct {
		path  string
		specs int
	}

	loads := make([]fileLoad, len(files))
	for idx, f := range files {
		result := staticparser.DiscoverFile(f, readOrEmpty(f))
		loads[idx] = fileLoad{path: f, specs: staticparser.TotalSpecs(result.Root)}
	}

	sizes := make([]int, k)
	var mine []string
	total := 0

	for _, l := range loads {
		total += l.specs
		bucket := leastLoaded(sizes)
		sizes[bucket] += l.specs
		if bucket == i {
			mine = append(mine, l.path)
		}
	}

	return PartitionResult{Files: mine, TotalSpecs: total, PerPartitionSize: sizes}
}

func leastLoaded(sizes []int) int {
	best := 0
	for idx, s := range sizes {
		if s < sizes[best] {
			best = idx
		}
	}
	return best
}

func hashFile(path string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return h.Sum32()
}
