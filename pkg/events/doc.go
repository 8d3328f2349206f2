// Package events carries the fire-and-forget notifications a resource form
// emits after a mutation. The controller only ever publishes; subscribers
// (list views, caches, other processes) decide what a "refetch" means.
//
// A nil Publisher is a legal no-op so hosts without an event bus need no
// wiring. Bus is an in-process implementation, MQTTPublisher forwards topics
// to an MQTT broker, and Multi fans a topic out to several publishers.
package events
