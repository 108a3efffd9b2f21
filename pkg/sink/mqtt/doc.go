// Package mqtt publishes bridge output to an MQTT broker.
package mqtt

// Topics, relative to the broker URL path prefix:
//
//	<device>/frame    canonical text frame, QoS 0
//	<device>/reading  protobuf encoded reading, QoS 0
//	<device>/meta     retained JSON device info, cleared on exit
