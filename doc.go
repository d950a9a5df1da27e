// Package mdrun drives an external molecular-dynamics engine through a
// sequence of simulation segments and decides, at run time, how long each
// segment must run before its measured properties are statistically
// trustworthy.
//
// The core pieces are:
//
//   - [Runner]: the convergence-controlled run loop. It accumulates fixed
//     segments into a combined engine input, executes it, restarts
//     convergence-controlled segments from the latest checkpoint, and keeps
//     doubling their duration until every sampled property passes the
//     statistical criteria in package trajstat.
//   - [Store]: run-scoped bookkeeping of batch inputs and engine checkpoint
//     (dump) files, including latest-snapshot resolution by step count.
//   - [Executor]: the contract to the engine invocation itself. The bundled
//     [LocalExecutor] runs the engine as a subprocess in a scratch directory.
//
// Segments are described by a [Protocol], usually loaded from YAML. Segment
// instruction lines may contain ${...} expressions that are evaluated against
// the protocol's variables using the script package.
package mdrun
