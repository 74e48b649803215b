// Package theme resolves theme inheritance and decides deployment order and family.
//
// All lookups go through a Registry supplied by the caller. Three operations build on it:
//
//   - Resolver.ResolveChain walks a theme up to its root ancestor.
//   - Order merges several chains into one list where ancestors precede descendants.
//   - Classifier.Classify tags a theme fast-path when it is, or descends from, a
//     configured fast-path root.
//
// Walks are bounded by a maximum number of chain entries (DefaultMaxDepth) so cyclic or
// malformed registry data always terminates. A failed lookup ends the walk with whatever
// was collected; it never surfaces as an error.
package theme
