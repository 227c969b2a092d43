package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <case.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	var files []string
	for _, arg := range os.Args[1:] {
		found, err := expand(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No case files found")
		os.Exit(1)
	}

	failed := 0
	for _, path := range files {
		if err := validateFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("%s is valid\n", path)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d case files failed validation\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Println("All case files are valid!")
}

// expand returns path itself, or the case files directly inside it
func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return filepath.Glob(filepath.Join(path, "*"+casefile.Extension))
}

func validateFile(path string) error {
	base := filepath.Base(path)
	if filepath.Ext(base) != casefile.Extension {
		return fmt.Errorf("case file must have %s extension: %s", casefile.Extension, base)
	}
	if !casefile.ValidFileName(base) {
		return fmt.Errorf("case filename '%s' must be lowercase snake_case (e.g., quiet_mill.yaml)", base)
	}

	cf, err := casefile.Load(path)
	if err != nil {
		return err
	}
	if err := cf.Validate(); err != nil {
		return fmt.Errorf("validation errors in %s:\n%w", path, err)
	}
	return nil
}
