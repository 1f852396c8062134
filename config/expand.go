package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandPath expands ${VAR} references in a path read from a config file,
// such as "${XDG_RUNTIME_DIR}/health". Unlike os.ExpandEnv it fails when a
// referenced variable is unset instead of collapsing it to "", which would
// silently turn the path relative. "$$" yields a literal "$".
func ExpandPath(s string) (string, error) {
	const dollar = "\x00HEALTH_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	missing := make(map[string]struct{})
	for _, m := range envRefPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			missing[m[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrUnsetVariable, strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.MultiprocDir, &c.Logging.File} {
		v, err := ExpandPath(*p)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		*p = v
	}
	return nil
}
