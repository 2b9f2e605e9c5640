// Package dmdef holds the types, constants and errors shared by the dmtree
// packages.
package dmdef

import (
	"fmt"
	"time"
)

const (
	// ServiceID scopes connection secrets in the credential store.
	ServiceID = "dmtree"

	// GlobalStateKey is the host state key holding the connection registry.
	GlobalStateKey = "dmtree.connections"

	// DefaultBaseURL is the device management API root.
	DefaultBaseURL = "https://api.us-east-1.mbedcloud.com/"

	// DefaultLabel is used when a connection is created without a label.
	DefaultLabel = "default"
)

var (
	// ErrAccessKeyEmpty is returned when a connection is created or used without an access key.
	ErrAccessKeyEmpty = fmt.Errorf("dmtree: access key empty")

	// ErrConnectionNotFound is returned when a connection id is not in the registry.
	ErrConnectionNotFound = fmt.Errorf("dmtree: connection not found")

	// ErrNoConnections is returned when an operation needs a connection but the registry is empty.
	ErrNoConnections = fmt.Errorf("dmtree: no connections configured")
)

// Connection is a named credential set for one account on the device
// management API.
type Connection struct {
	ID        string
	Label     string
	AccessKey string
}

// ConnectionInfo is the non-secret registry record for a connection.
// The access key is never part of it.
type ConnectionInfo struct {
	Label     string    `cbor:"1,keyasint"`
	CreatedAt time.Time `cbor:"2,keyasint,omitempty"`
}

// Device is one entry of the device list.
type Device struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	State        string `json:"state,omitempty"`
	EndpointName string `json:"endpoint_name,omitempty"`
}

// Resource is one entry of a device's endpoint resource list.
type Resource struct {
	URI          string `json:"uri"`
	ResourceType string `json:"rt,omitempty"`
	Observable   bool   `json:"obs,omitempty"`
	ContentType  string `json:"type,omitempty"`
}
