// Package dmtree presents a device management account as a lazily expanded
// tree: connections at the root, their devices below, and each device's
// resources as leaves.
//
// Nothing is fetched until a host asks for a node's children. Each expansion
// makes at most one API call and an error never fails the expansion; it is
// shown as a single InfoNode in place of the children.
//
// Connections are recorded in a Registry. The registry keeps only labels in
// host state; access keys live in a SecretStore addressed by
// (dmdef.ServiceID, connection id) and are resolved each time the roots are
// built.
//
// The Provider is what a host UI talks to. It builds the roots, delegates
// child fetches to nodes, keeps one API session per connection and
// broadcasts change notifications.
package dmtree
