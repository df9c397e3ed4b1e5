// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

const (
	defaultCPUProfile    = "cpu.prof"
	defaultMemoryProfile = "mem.prof"
)

// StartCPUProfile writes a CPU profile to the file until the returned stop
// function is called.
func StartCPUProfile(fileName string) (func(), error) {
	if fileName == "" {
		fileName = defaultCPUProfile
	}
	cpuFile, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpuFile.Close()
	}, nil
}

// CreateMemoryProfile writes the allocations profile to the file.
func CreateMemoryProfile(fileName string) error {
	if fileName == "" {
		fileName = defaultMemoryProfile
	}
	memFile, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.Lookup("allocs").WriteTo(memFile, 0); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	return nil
}
