// Package main is the entry point for the git-vault CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/benjaminpreiss/git-vault/internal/app"
	"github.com/benjaminpreiss/git-vault/internal/cli"
	"github.com/benjaminpreiss/git-vault/internal/infra/git"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		if errors.Is(err, git.ErrNotGitRepository) {
			return runWithoutContainer(err)
		}
		return fmt.Errorf("initialize: %w", err)
	}
	defer container.Log.Close()

	return cli.NewRootCommand(container, version).Execute()
}

// runWithoutContainer allows --help and --version to work outside a git
// repository; every other command needs a repository to locate its vaults.
func runWithoutContainer(gitErr error) error {
	root := cli.NewRootCommand(nil, version)

	if len(os.Args) == 1 {
		return root.Execute()
	}
	switch os.Args[1] {
	case "--version", "-v", "version", "--help", "-h", "help":
		return root.Execute()
	default:
		return gitErr
	}
}
