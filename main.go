// Package main runs the nanogit repository service: it restores the last
// opened working copy and keeps its status and history projections fresh
// until interrupted.
package main

import "github.com/nanogit/nanogit/internal"

func main() {
	internal.Run()
}
