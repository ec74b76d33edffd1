package filter

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// LoadFile reads filter rules from a file on fs and appends them to the chain.
// Format:
//
//	- pattern  → exclude
//	+ pattern  → include
//	# comment  → skip
//	blank line → skip
//	no prefix  → exclude (rsync default)
func (c *Chain) LoadFile(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := c.addLine(scanner.Text()); err != nil {
			return fmt.Errorf("filter file %s line %d: %w", path, lineNum, err)
		}
	}

	return scanner.Err()
}

// AddRules appends rule lists from the config file. Includes go first so
// they carve exceptions out of the excludes.
func (c *Chain) AddRules(excludes, includes []string) error {
	for _, p := range includes {
		if err := c.AddInclude(p); err != nil {
			return fmt.Errorf("include %q: %w", p, err)
		}
	}
	for _, p := range excludes {
		if err := c.AddExclude(p); err != nil {
			return fmt.Errorf("exclude %q: %w", p, err)
		}
	}
	return nil
}

func (c *Chain) addLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	switch {
	case strings.HasPrefix(line, "+ "):
		return c.AddInclude(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "- "):
		return c.AddExclude(strings.TrimSpace(line[2:]))
	default:
		return c.AddExclude(line)
	}
}
