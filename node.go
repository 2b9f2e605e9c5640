package dmtree

import (
	"context"
	"time"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/rs/zerolog"
)

// CollapsibleState tells the host how a row can be expanded.
type CollapsibleState int

const (
	None CollapsibleState = iota
	Collapsed
	Expanded
)

func (s CollapsibleState) String() string {
	switch s {
	case None:
		return "none"
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Icon hints understood by hosts.
const (
	IconRoot            = "root"
	IconMicrocontroller = "microcontroller"
	IconResource        = "resource"
	IconInfo            = "info"
)

// TreeItem describes how a node is rendered.
type TreeItem struct {
	Label       string
	Description string
	Tooltip     string
	Collapsible CollapsibleState
	Icon        string
}

// Session is the API surface a node fetches its children from.
// *dmapi.Client implements it.
type Session interface {
	ListDevices(ctx context.Context) ([]dmdef.Device, error)
	ListResources(ctx context.Context, deviceID string) ([]dmdef.Resource, error)
}

// Node is one row of the tree. The set of implementations is closed:
// *ConnectionNode, *DeviceNode, *ResourceNode and *InfoNode.
type Node interface {
	// TreeItem describes the row. It performs no I/O.
	TreeItem() TreeItem

	// Children fetches the node's children. It makes at most one API call and
	// never fails: an error becomes a single *InfoNode.
	Children(ctx context.Context) []Node

	node()
}

// ConnectionNode is a root row for one registered connection.
type ConnectionNode struct {
	ID         string
	Connection dmdef.Connection

	session Session
	log     zerolog.Logger
}

// NewConnectionNode binds a connection to the session its children are fetched with.
func NewConnectionNode(conn dmdef.Connection, session Session, log zerolog.Logger) *ConnectionNode {
	return &ConnectionNode{ID: conn.ID, Connection: conn, session: session, log: log}
}

func (*ConnectionNode) node() {}

func (n *ConnectionNode) TreeItem() TreeItem {
	label := n.Connection.Label
	if label == "" {
		label = "Devices"
	}
	return TreeItem{
		Label:       label,
		Description: "Devices",
		Tooltip:     n.ID,
		Collapsible: Expanded,
		Icon:        IconRoot,
	}
}

func (n *ConnectionNode) Children(ctx context.Context) []Node {
	start := time.Now()
	devices, err := n.session.ListDevices(ctx)
	if err != nil {
		n.log.Warn().Err(err).Str("connection", n.ID).Msg("list devices")
		return []Node{NewInfoNode(err.Error())}
	}
	n.log.Debug().
		Str("connection", n.ID).
		Int("count", len(devices)).
		Dur("elapsed", time.Since(start)).
		Msg("listed devices")

	out := make([]Node, 0, len(devices))
	for _, d := range devices {
		out = append(out, &DeviceNode{
			DeviceID:   d.ID,
			Device:     d,
			Connection: n.Connection,
			session:    n.session,
			log:        n.log,
		})
	}
	return out
}

// DeviceNode is a device under a connection.
type DeviceNode struct {
	DeviceID   string
	Device     dmdef.Device
	Connection dmdef.Connection

	session Session
	log     zerolog.Logger
}

// NewDeviceNode returns a device row fetching its resources through session.
func NewDeviceNode(deviceID string, conn dmdef.Connection, session Session, log zerolog.Logger) *DeviceNode {
	return &DeviceNode{
		DeviceID:   deviceID,
		Device:     dmdef.Device{ID: deviceID},
		Connection: conn,
		session:    session,
		log:        log,
	}
}

func (*DeviceNode) node() {}

func (n *DeviceNode) TreeItem() TreeItem {
	desc := n.Device.Name
	if n.Device.State != "" {
		if desc != "" {
			desc += " "
		}
		desc += "(" + n.Device.State + ")"
	}
	return TreeItem{
		Label:       n.DeviceID,
		Description: desc,
		Tooltip:     n.Device.EndpointName,
		Collapsible: Collapsed,
		Icon:        IconMicrocontroller,
	}
}

func (n *DeviceNode) Children(ctx context.Context) []Node {
	resources, err := n.session.ListResources(ctx, n.DeviceID)
	if err != nil {
		n.log.Warn().Err(err).Str("connection", n.Connection.ID).Str("device", n.DeviceID).Msg("list resources")
		return []Node{NewInfoNode(err.Error())}
	}
	n.log.Debug().Str("device", n.DeviceID).Int("count", len(resources)).Msg("listed resources")

	out := make([]Node, 0, len(resources))
	for _, r := range resources {
		out = append(out, &ResourceNode{URI: r.URI, Resource: r, Connection: n.Connection})
	}
	return out
}

// ResourceNode is a leaf resource of a device. Reading and writing resource
// values is not supported.
type ResourceNode struct {
	URI        string
	Resource   dmdef.Resource
	Connection dmdef.Connection
}

// NewResourceNode returns a resource leaf.
func NewResourceNode(uri string, conn dmdef.Connection) *ResourceNode {
	return &ResourceNode{URI: uri, Resource: dmdef.Resource{URI: uri}, Connection: conn}
}

func (*ResourceNode) node() {}

func (n *ResourceNode) TreeItem() TreeItem {
	return TreeItem{
		Label:       n.URI,
		Description: n.Resource.ResourceType,
		Collapsible: None,
		Icon:        IconResource,
	}
}

func (*ResourceNode) Children(context.Context) []Node {
	return []Node{}
}

// InfoNode is a leaf carrying a message, usually an error that replaced a
// node's children.
type InfoNode struct {
	Message string
}

// NewInfoNode returns an info leaf.
func NewInfoNode(message string) *InfoNode {
	return &InfoNode{Message: message}
}

func (*InfoNode) node() {}

func (n *InfoNode) TreeItem() TreeItem {
	return TreeItem{
		Label:       n.Message,
		Collapsible: None,
		Icon:        IconInfo,
	}
}

func (*InfoNode) Children(context.Context) []Node {
	return []Node{}
}
