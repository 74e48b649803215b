// Package dispatch turns an ordered deployment set into backend invocations.
//
// A dispatch call partitions the set into fast-path and standard families, selects
// one backend for the run, builds one invocation per non-empty family and executes
// them. Both families are always attempted; the aggregate succeeds only when every
// attempted family succeeded.
//
// Backend selection:
//   - accelerated, when acceleration is enabled and the binary can be located
//   - native otherwise, with no error reported for the missing binary
//
// Invocations are never retried. Each one is bounded by the Runner's timeout
// (SIGTERM, 5s grace, then SIGKILL).
//
// Families run sequentially unless Options.Parallel is set, in which case they run
// concurrently and are still both awaited before the Result is returned.
package dispatch
