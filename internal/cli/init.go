package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entro314-labs/vdk/internal/config"
)

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	root := fs.String("root", ".", "project root")
	name := fs.String("name", "", "project name (default: root directory name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rootPath, err := resolveRoot(*root)
	if err != nil {
		return err
	}
	if _, err := config.EnsureLayout(rootPath); err != nil {
		return err
	}
	projectName := *name
	if projectName == "" {
		projectName = filepath.Base(rootPath)
	}
	if err := config.WriteDefault(rootPath, projectName); err != nil {
		return err
	}
	fmt.Printf("Initialized vdk workspace at %s\n", config.Dir(rootPath))
	return nil
}

// resolveRoot converts a path to absolute and verifies it exists.
func resolveRoot(root string) (string, error) {
	rootPath, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", rootPath)
	}
	return rootPath, nil
}
