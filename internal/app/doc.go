// Package app assembles a hull application. It resolves the runtime
// configuration, loads the manifest, attaches the platform's capability
// plugin set to a host builder, and drives the blocking run loop.
// Entrypoints such as the CLI stay thin by delegating here.
package app
