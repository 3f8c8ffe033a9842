package build

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// availableMemoryFraction estimates the fraction of system memory currently
// available, mirroring the Python original's psutil.virtual_memory().percent
// check (original_source/index/inverted_index.py::_memory_low). None of the
// example repos in the retrieval pack carry a psutil-equivalent dependency
// (no cross-platform memory-stats library appears in any example's go.mod),
// so this one check is read directly from /proc/meminfo rather than through
// a third-party library — see DESIGN.md for the justification. On platforms
// without /proc/meminfo, it reports 1.0 (never low), so the flush path still
// functions correctly using the posting-count threshold alone.
func availableMemoryFraction() float64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 1.0
	}
	defer f.Close()

	var totalKB, availKB uint64
	found := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && found < 2 {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB = parseMeminfoValue(line)
			found++
		case strings.HasPrefix(line, "MemAvailable:"):
			availKB = parseMeminfoValue(line)
			found++
		}
	}
	if totalKB == 0 {
		return 1.0
	}
	return float64(availKB) / float64(totalKB)
}

func parseMeminfoValue(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
