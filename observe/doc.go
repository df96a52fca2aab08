// Package observe provides observability primitives for governed provider calls.
//
// It is a pure instrumentation library: no call execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the govern pipeline
// or their own call middleware.
package observe
