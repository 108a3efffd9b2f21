// Package telemetry provides the sensor text protocol: decoding raw records,
// normalizing raw readings and encoding the canonical output frame.
package telemetry

// The sensor peer sends ASCII records made of `KEY=NUMBER` fields separated
// by `;`. A record carries no terminator, the framing boundary comes from
// the serial read returning.
//
// The bridge re-serializes every record into the canonical frame
//
//	SOIL1=<0-100>;SOIL2=<0-100>;RAIN=<0|1>;TANK=<0-100>;AMB=<f.1>;TEMP=<f.1>
//
// Producer: sensor peer
// Consumer: local terminal and remote monitor
