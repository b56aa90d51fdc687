//go:build windows

package main

import "fmt"

func reexec() error {
	return fmt.Errorf("restart: in-place re-exec is not supported on windows; use a service manager")
}
