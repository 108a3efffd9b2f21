// Package env provides information about the host running the bridge.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the protected machine ID to this application.
const AppID = "uartbridge"

// DeviceIDEnv overrides the detected device ID.
const DeviceIDEnv = "BRIDGE_DEVICE_ID"

// DeviceID retrieves a stable ID identifying the bridge host.
// The raw machine ID is never exposed, only its application-scoped hash.
func DeviceID() string {
	if id := os.Getenv(DeviceIDEnv); id != "" {
		return id
	}
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if id, err = os.Hostname(); err == nil && id != "" {
		return id
	}
	return AppID
}
