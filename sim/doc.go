// Package sim provides the discrete-event simulation engine for a single-server,
// non-preemptive, multi-class priority queue.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: Process (a logical process) and the resumption ordering
//   - simulator.go: the clock, Advance (the only suspension point) and the Run loop
//   - generator.go, dispatcher.go, server.go: the three kinds of logical process
//   - queue.go: the AdmissionQueue shared by generators and dispatcher
//
// # Execution Model
//
// All logical processes are multiplexed onto one clock and run one at a time.
// A process runs until it calls Advance, which schedules its next resumption;
// code between two Advance calls is atomic with respect to every other
// process, so the queue and server need no locking. Resumptions are ordered
// by time, then rank (server, generators by class, dispatcher), then
// scheduling sequence, which makes a run reproducible bit-for-bit from its
// seed and configuration.
//
// Sub-packages:
//   - sim/sampling: interarrival and service-time samplers
//   - sim/analysis: latency, throughput and jitter summaries of result records
//   - sim/export: CSV and SQLite writers
//   - sim/telemetry: Prometheus metrics fed by engine hooks
package sim
