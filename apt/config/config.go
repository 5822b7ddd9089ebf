// Package config handles aptdis.toml settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/listing"
)

// FileName is the name looked up next to inputs and in their parents.
const FileName = "aptdis.toml"

// Config represents an aptdis.toml file.
type Config struct {
	Decompile Decompile `toml:"decompile"`
	Listing   Listing   `toml:"listing"`
	Log       Log       `toml:"log"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// Decompile configures the decompiler.
type Decompile struct {
	Mode     string `toml:"mode"`
	Workers  int    `toml:"workers"`
	MaxSteps int    `toml:"max-steps"`
	Indent   string `toml:"indent"`
}

// Listing configures binary listing output.
type Listing struct {
	Encoding string `toml:"encoding"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the settings used when no file is found.
func Default() *Config {
	return &Config{
		Decompile: Decompile{Mode: apt.Strict.String()},
		Listing:   Listing{Encoding: listing.DefaultEncoding},
	}
}

// Load parses the config file at path. Unset keys keep their defaults and
// unknown keys are an error.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undec[0])
	}
	if _, ok := apt.ParseMode(c.Decompile.Mode); !ok {
		return nil, fmt.Errorf("%s: unknown mode %q (use strict or besteffort)", path, c.Decompile.Mode)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(filepath.Dir(path), c.Log.File)
	}
	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir to find an aptdis.toml file and loads
// it. Without one it returns Default.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Options converts the decompile section to apt.Options.
func (c *Config) Options() apt.Options {
	mode, _ := apt.ParseMode(c.Decompile.Mode)
	return apt.Options{
		Mode:     mode,
		MaxSteps: c.Decompile.MaxSteps,
		Workers:  c.Decompile.Workers,
		Indent:   c.Decompile.Indent,
	}
}
