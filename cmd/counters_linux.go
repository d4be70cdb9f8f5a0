//go:build linux

package cmd

import (
	"runtime"

	perf "github.com/hodgesds/perf-utils"
)

// countInstructions runs f on a locked OS thread and reports the CPU
// instructions it retired. When the counter cannot be opened f still runs and
// zero is reported.
func countInstructions(f func() error) (instructions uint64, err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	var (
		ran  bool
		fErr error
	)
	pv, perfErr := perf.CPUInstructions(func() error {
		ran = true
		fErr = f()
		return fErr
	})
	if !ran {
		return 0, f()
	}
	if perfErr == nil && pv != nil {
		instructions = pv.Value
	}
	return instructions, fErr
}
