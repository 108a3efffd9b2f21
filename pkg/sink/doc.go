// Package sink delivers output frames to the bridge consumers.
//
// Every sink is independent: a Fanout keeps delivering to the remaining
// sinks when one fails, and nothing is retried.
package sink
