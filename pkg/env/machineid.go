// Package env provides the settings shared by the robot and host
// programs.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the hashed machine ID.
const AppID = "romi"

// MachineID retrieves the ID identifying the machine. The raw machine
// ID is hashed so it is never published to the broker.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return ""
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
