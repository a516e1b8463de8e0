//go:build !(linux && !android) && !(windows && debug)

package app

const relinkDeepLinksOnBoot = false
