// Package workspace reads the project's selene.toml.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar"
)

const ConfigFile = "selene.toml"

// Config is the part of selene.toml the server itself needs. selene reads
// the rest.
type Config struct {
	Std     string   `toml:"std"`
	Exclude []string `toml:"exclude"`
}

// LoadConfig reads dir/selene.toml. A missing file is reported with an
// error wrapping fs.ErrNotExist.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}

// Excludes reports whether path matches one of the exclude globs. Relative
// globs are anchored at root. Malformed globs never match.
func (c *Config) Excludes(root, path string) bool {
	if c == nil {
		return false
	}
	name := filepath.ToSlash(path)
	for _, pattern := range c.Exclude {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		ok, err := doublestar.Match(filepath.ToSlash(pattern), name)
		if err == nil && ok {
			return true
		}
	}
	return false
}

var stdValue = regexp.MustCompile(`std\s*=\s*"(.+)"`)

// AddRobloxStd rewrites selene.toml contents so that the roblox standard
// library is layered over whatever std was configured. Contents without a
// std line get one prepended; a std that already starts with roblox is kept.
func AddRobloxStd(contents string) string {
	set := false
	lines := strings.Split(contents, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "std") {
			continue
		}
		set = true
		m := stdValue.FindStringSubmatch(line)
		if m == nil || m[1] == "roblox" || strings.HasPrefix(m[1], "roblox+") {
			continue
		}
		lines[i] = fmt.Sprintf(`std = "roblox+%s"`, m[1])
	}
	if set {
		return strings.Join(lines, "\n")
	}
	return "std = \"roblox\"\n" + strings.Join(lines, "\n")
}

// EnableRoblox applies AddRobloxStd to dir/selene.toml, creating the file if
// needed.
func EnableRoblox(dir string) error {
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading existing config: %w", err)
	}
	if err := os.WriteFile(path, []byte(AddRobloxStd(string(data))), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
