//go:build (linux && !android) || (windows && debug)

package app

// relinkDeepLinksOnBoot refreshes URL scheme registrations on every boot.
// Linux desktop entries record the executable path at registration time and
// go stale when it moves. Debug Windows builds, compiled with -tags debug,
// have the same problem because each working copy lives somewhere else.
const relinkDeepLinksOnBoot = true
