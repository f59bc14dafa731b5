// Package testutil provides shared helpers for the test suites.
//
// It currently hosts the embedded NATS server used by the topology
// watcher tests. The server runs in-process with JetStream enabled and
// is torn down automatically via t.Cleanup.
package testutil
