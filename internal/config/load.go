package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// DefaultFile is the config file looked up in a workbook directory.
const DefaultFile = "sheetq.cue"

// Load reads and compiles a config. path may be a .cue file or a directory
// holding a CUE package; all .cue files of the directory are unified.
func Load(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config not found: %w", err)
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("no CUE instances loaded from %s", path)
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
		}
		value = ctx.BuildInstance(inst)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		value = ctx.CompileBytes(data, cue.Filename(path))
	}

	return Compile(value)
}

// Find returns the config for a workbook: explicit when set, else
// sheetq.cue next to the database. An empty result means no config.
func Find(explicit, dbPath string) string {
	if explicit != "" {
		return explicit
	}
	if dbPath == "" || dbPath == ":memory:" {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(dbPath), DefaultFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
