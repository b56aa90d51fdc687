package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultStateFileName = "mucbot_state.json"
	InstanceLockKey      = "ledger.main"
)

func FileStateDir() string {
	dir := ExpandHomePath(viper.GetString("file_state_dir"))
	if dir == "" {
		return "."
	}
	return filepath.Clean(dir)
}

func StateFilePath() string {
	name := strings.TrimSpace(viper.GetString("state.file_name"))
	if name == "" {
		name = DefaultStateFileName
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(FileStateDir(), name)
}

func LockDir() string {
	return filepath.Join(FileStateDir(), ".fslocks")
}

func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
