// SPDX-License-Identifier: MIT
package build

import (
	"strings"
	"testing"
)

func TestInitializeDefaults(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	flags := GetBuildFlags()
	if flags.Name == "" {
		t.Error("build name must never be empty")
	}
	if flags.Version == "" {
		t.Error("build version must never be empty")
	}
}

func TestInitializeWithLdflags(t *testing.T) {
	origName, origVersion := buildName, buildVersion
	defer func() {
		buildName, buildVersion = origName, origVersion
	}()

	buildName = "viztest"
	buildVersion = "1.2.3"
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	flags := GetBuildFlags()
	if flags.Name != "viztest" {
		t.Errorf("Name = %q, want %q", flags.Name, "viztest")
	}
	if flags.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", flags.Version, "1.2.3")
	}
}

func TestString(t *testing.T) {
	s := GetBuildFlags().String()
	if !strings.Contains(s, GetBuildFlags().Name) {
		t.Errorf("String() = %q, should contain build name", s)
	}
}
