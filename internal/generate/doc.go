// Package generate drives a product.Engine to a sink with a pool of workers.
//
// ARCHITECTURE:
//
// The index space [0, Total()) is cut into contiguous chunks. Each chunk is
// one pool task; a task walks its chunk with a product.Cursor, renders every
// word into a worker-local buffer and writes it to the sink. Decoding needs
// no synchronization because the field set is read-only.
//
// The sink is shared. Every write takes a single mutex, checks that the run
// is still live and writes one word. The lock is never held while decoding.
//
// Emission order across workers is unspecified. Every index is written
// exactly once on success.
//
// FAILURE:
//
// The first sink error marks the run failed under the sink lock, so no write
// starts after it, and cancels the pool. In-flight workers notice on their
// next write attempt and stop. The sink is then aborted; nothing is retried.
package generate
