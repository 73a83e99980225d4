package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv is the environment variable that pins the worker count.
const OverrideEnv = "THUMBGRID_WORKERS"

// Count sizes a pool at perCPU workers for each usable CPU. GOMAXPROCS
// already reflects container CPU quotas, so it is the base. A positive
// THUMBGRID_WORKERS value replaces the computed size. limit caps the result
// when above zero.
func Count(perCPU float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * perCPU)
	if v, err := strconv.Atoi(os.Getenv(OverrideEnv)); err == nil && v > 0 {
		n = v
	}
	return clamp(n, limit)
}

func clamp(n, limit int) int {
	switch {
	case n < 1:
		return 1
	case limit > 0 && n > limit:
		return limit
	}
	return n
}

// ForCPU returns the decode pool size: one worker per CPU. Decoding is
// CPU-bound once the source bytes are read.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
