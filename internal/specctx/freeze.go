package specctx

// Freeze computes the cached values documented in spec.md §3 — totalSpecCount,
// hasFocusedDescendant, and the two flattened hook chains — for c and every
// descendant, then marks the subtree read-only (frozen = true). Freeze must be
// called exactly once, on the root, after a script has finished declaring its
// tree (spec.md §4.1: "the tree is then frozen").
//
// Tag inheritance is also finalized here: each context's Tags field is
// replaced by the union of its own locally-added tags and every ancestor's
// tags, matching spec.md §3's "tags inherited from the lexical parent plus
// locally-added tags".
func Freeze(root *SpecContext) {
	freeze(root, nil, nil, NewTagSet())
}

// freeze recurses depth-first, threading down the inherited beforeEach chain
// (parent->child order so far) and tags, and returns the post-order
// aggregates needed by the caller (ancestors need children's totals and
// focus flags).
func freeze(c *SpecContext, beforeChain, afterChainFromAncestors []HookFunc, inheritedTags TagSet) (totalSpecs int, hasFocused bool) {
	localTags := c.Tags
	c.Tags = localTags.Union(inheritedTags)

	// beforeEach chain grows root->leaf; afterEach chain grows leaf->root, so
	// we build it by prepending as we go back up (post-order), which is what
	// afterChainFromAncestors represents: the ancestors' afterEach hooks in
	// child->parent order, to be appended AFTER this context's own afterEach.
	myBeforeChain := beforeChain
	if c.BeforeEach != nil {
		myBeforeChain = append(append([]HookFunc{}, beforeChain...), c.BeforeEach)
	}

	myAfterChain := afterChainFromAncestors
	if c.AfterEach != nil {
		myAfterChain = append([]HookFunc{c.AfterEach}, afterChainFromAncestors...)
	}

	c.beforeEachChain = myBeforeChain
	c.afterEachChain = myAfterChain

	total := len(c.Specs)
	focused := false

	for _, s := range c.Specs {
		if s.Focused && !s.Skipped {
			focused = true
		}
	}

	for _, child := range c.Children {
		childTotal, childFocused := freeze(child, myBeforeChain, myAfterChain, c.Tags)
		total += childTotal
		focused = focused || childFocused
	}

	c.totalSpecCount = total
	c.hasFocusedDescendant = focused
	c.frozen = true

	return total, focused
}
