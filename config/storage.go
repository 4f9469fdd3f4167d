package config

import (
	"os"
	"path/filepath"
)

const (
	StorageDriverSqlite = "sqlite"
	StorageDriverMemory = "memory"
)

type StorageConfig struct {
	// Driver is either "sqlite" or "memory".
	// Default: sqlite
	Driver string `yaml:"driver" json:"driver"`

	// SqlitePath specifies the file path for the SQLite database. ":memory:"
	// keeps the database in process.
	// Default: ~/.oursgpt/oursgpt.db
	SqlitePath string `yaml:"sqlitePath" json:"sqlitePath"`
}

func NewStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver:     StorageDriverSqlite,
		SqlitePath: filepath.Join(HomeDir(), "oursgpt.db"),
	}
}

// HomeDir is where configuration and data live unless overridden.
func HomeDir() string {
	if dir := os.Getenv("OURSGPT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oursgpt"
	}
	return filepath.Join(home, ".oursgpt")
}
