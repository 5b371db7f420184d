package stage

import (
	"strconv"
	"strings"

	"github.com/san-kum/powersweep/internal/sweep"
)

// RunNumber picks the run number for this worker: an explicit value wins,
// otherwise the first non-empty scheduler variable in envNames.
func RunNumber(explicit int, envNames []string, lookup func(string) (string, bool)) (int, error) {
	if explicit > 0 {
		return explicit, nil
	}
	for _, name := range envNames {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return 0, sweep.Validationf("run number", "%s=%q is not a positive integer", name, v)
		}
		return n, nil
	}
	return 0, sweep.Validationf("run number", "no --run given and none of %s is set", strings.Join(envNames, ", "))
}
