package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zboralski/apt-dumper/apt"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
[decompile]
mode = "besteffort"
workers = 8
max-steps = 1000
indent = "  "

[listing]
encoding = "iso-8859-1"

[log]
verbosity = 2
file = "aptdis.log"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	opt := c.Options()
	if opt.Mode != apt.BestEffort || opt.Workers != 8 || opt.MaxSteps != 1000 || opt.Indent != "  " {
		t.Errorf("options = %+v", opt)
	}
	if c.Listing.Encoding != "iso-8859-1" {
		t.Errorf("encoding = %q", c.Listing.Encoding)
	}
	if c.Log.Verbosity != 2 || c.Log.File != filepath.Join(dir, "aptdis.log") {
		t.Errorf("log = %+v", c.Log)
	}
	if c.Path != path {
		t.Errorf("path = %q", c.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(write(t, t.TempDir(), "[log]\nverbosity = 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Options().Mode != apt.Strict {
		t.Errorf("mode = %v, want strict", c.Options().Mode)
	}
	if c.Listing.Encoding != "windows-1252" {
		t.Errorf("encoding = %q", c.Listing.Encoding)
	}
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":  "[decompile]\nthreads = 2\n",
		"unknown mode": "[decompile]\nmode = \"lenient\"\n",
		"syntax":       "[decompile\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(write(t, t.TempDir(), body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	write(t, root, "[decompile]\nworkers = 3\n")
	nested := filepath.Join(root, "movies", "menu")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Decompile.Workers != 3 {
		t.Errorf("workers = %d, want 3", c.Decompile.Workers)
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != "" && filepath.Base(c.Path) != FileName {
		t.Errorf("unexpected path %q", c.Path)
	}
}
