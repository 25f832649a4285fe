package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validated struct {
	Name string `yaml:"name"`
}

var errBadName = errors.New("name is required")

func (v *validated) Validate() error {
	if v.Name == "" {
		return errBadName
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "name: puchi\nport: 9000\n")

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "puchi" || got.Port != 9000 {
		t.Errorf("got %+v", got)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "from-env")
	path := writeFile(t, "name: ${TEST_CONFIG_NAME}\n")

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "from-env" {
		t.Errorf("name = %q, want from-env", got.Name)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "name: \"\"\n")

	var got validated
	err := Load(path, &got)
	if !errors.Is(err, errBadName) {
		t.Errorf("err = %v, want wrapped errBadName", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &got); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "name: [unclosed\n")
	var got sample
	if err := Load(path, &got); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
