//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const (
	binary   = "media-sync"
	mainPkg  = "./cmd/media-sync"
	coverOut = "coverage.out"
	coverWeb = "coverage.html"
)

// enginePkgs hold the copy state machine, the queue and the control file stores.
var enginePkgs = []string{"./internal/syncengine/...", "./internal/watermark/...", "./pkg/fileops/..."}

// Build builds the media-sync binary
func Build() error {
	fmt.Println("Building " + binary + "...")
	return sh.Run("go", "build", "-o", binary, mainPkg)
}

// Install installs media-sync into GOBIN
func Install() error {
	fmt.Println("Installing...")
	return sh.Run("go", "install", mainPkg)
}

// Generate writes the impgen test doubles
func Generate() error {
	fmt.Println("Generating test doubles...")
	return sh.RunV("go", "generate", "./...")
}

// Test runs every package with the race detector and writes a cover profile
func Test() error {
	mg.Deps(Generate)
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "-timeout=60s", "-coverprofile="+coverOut, "./...")
}

// Engine runs only the engine packages, uncached
func Engine() error {
	mg.Deps(Generate)
	fmt.Println("Running engine tests...")

	args := append([]string{"test", "-race", "-count=1", "-shuffle=on"}, enginePkgs...)

	return sh.RunV("go", args...)
}

// Lint runs golangci-lint with its default configuration
func Lint() error {
	fmt.Println("Linting...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	if err := sh.Run("gofmt", "-s", "-w", "."); err != nil {
		return err
	}
	return sh.Run("goimports", "-w", ".")
}

// Check formats, lints and tests
func Check() {
	mg.SerialDeps(Fmt, Lint, Test)
}

// Coverage writes an HTML coverage report and tries to open it
func Coverage() error {
	mg.Deps(Test)

	if err := sh.Run("go", "tool", "cover", "-html="+coverOut, "-o", coverWeb); err != nil {
		return err
	}

	if err := exec.Command("open", coverWeb).Run(); err != nil {
		fmt.Println("Coverage report generated at " + coverWeb)
	}
	return nil
}

// Clean removes build artifacts
func Clean() {
	fmt.Println("Cleaning...")
	for _, artifact := range []string{binary, coverOut, coverWeb} {
		_ = os.Remove(artifact)
	}
}
