// Package registry provides the central "glue" between the host framework
// and its capability plugins.
//
// A Registry holds the ordered set of plugins attached to a single
// application instance. Plugins are attached before the host starts, set up
// exactly once in attach order, and afterwards reachable in two ways: by
// command dispatch (the dotted "plugin.command" identifiers the UI bridge
// invokes) and by event delivery (run-loop events fanned out to plugins that
// opted in).
//
// The registry is populated during application startup and then frozen; all
// mutation happens before Setup, so dispatch and delivery need no locking.
package registry
