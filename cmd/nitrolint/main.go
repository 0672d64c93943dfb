// nitrolint statically checks a narrative script: parse errors, undefined
// or unused labels, missing assets, and degrading transitions. It prints
// every finding and exits nonzero when any error-level finding exists.
//
// Usage:
//
//	nitrolint [-assets DIR] script.md [more.md ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"nitro-vn/internal/diag"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/script"
)

func main() {
	assetsRoot := flag.String("assets", "", "assets root for existence checks (omit to skip them)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: nitrolint [-assets DIR] script.md [more.md ...]")
		os.Exit(2)
	}

	var source resource.Source
	if *assetsRoot != "" {
		source = resource.NewFsSource(*assetsRoot)
	}

	exitCode := 0
	for _, scriptPath := range flag.Args() {
		if !lintFile(scriptPath, *assetsRoot, source) {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// lintFile checks one script, printing findings. Returns false when the
// script has errors.
func lintFile(scriptPath, assetsRoot string, source resource.Source) bool {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nitrolint: %v\n", err)
		return false
	}

	id := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	parser := script.NewParser()
	parsed, err := parser.ParseWithBasePath(id, string(data), scriptBase(scriptPath, assetsRoot))
	if err != nil {
		fmt.Printf("[ERROR] %s: %v\n", scriptPath, err)
		return false
	}

	for _, w := range parser.Warnings() {
		fmt.Printf("[WARN] %s:%d: %s\n", scriptPath, w.Line, w.Message)
	}

	result := diag.CheckScript(parsed, source)
	for _, d := range result.Diagnostics {
		fmt.Println(d)
	}

	fmt.Printf("%s: %d error(s), %d warning(s)\n",
		scriptPath, result.ErrorCount(), result.WarnCount()+len(parser.Warnings()))
	return !result.HasErrors()
}

// scriptBase derives the asset-resolution base: the script's directory
// relative to the assets root when it sits inside one.
func scriptBase(scriptPath, assetsRoot string) string {
	dir := filepath.ToSlash(filepath.Dir(scriptPath))
	if assetsRoot != "" {
		root := filepath.ToSlash(filepath.Clean(assetsRoot))
		if strings.HasPrefix(dir, root+"/") {
			return strings.TrimPrefix(dir, root+"/")
		}
		if dir == root {
			return ""
		}
	}
	if dir == "." {
		return ""
	}
	return path.Clean(dir)
}
