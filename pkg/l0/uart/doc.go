// Package uart provides the link to the sensor peer over a serial line.
package uart

// The sensor peer writes ASCII records with no terminator. A record is
// whatever arrived when a read returns, so two writes landing in the same
// read window form a single record. Decoding is token based, so such
// records are still decoded correctly.
//
// Producer: sensor peer
// Consumer: bridge
