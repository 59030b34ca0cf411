// Package report prints what a generation run produced.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ddddddO/gtree"

	"shireesh.com/stackgen/internal/compressor"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/generator"
)

// maxDepth keeps the tree readable for scaffolds like Vite's.
const maxDepth = 4

// Tree writes the directory tree under dir, labelled with the project name.
// Dependency folders are listed but not descended into.
func Tree(w io.Writer, dir, name string) error {
	root := gtree.NewRoot(name)
	if err := addChildren(root, dir, "", 1); err != nil {
		return err
	}
	if err := gtree.OutputProgrammably(w, root); err != nil {
		return generr.Wrap(generr.EIO, "render tree", err)
	}
	return nil
}

func addChildren(node *gtree.Node, dir, rel string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return generr.Wrap(generr.EIO, "read "+dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		// directories first
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}
		if !e.IsDir() {
			node.Add(e.Name())
			continue
		}
		child := node.Add(e.Name() + "/")
		if compressor.SkipDependencyDirs(childRel, true) {
			child.Add("...")
			continue
		}
		if depth >= maxDepth {
			continue
		}
		if err := addChildren(child, filepath.Join(dir, e.Name()), childRel, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Results writes one line per planned generator with its status and timing.
func Results(w io.Writer, results []generator.Result) {
	for _, r := range results {
		switch r.Status {
		case generator.StatusDone:
			fmt.Fprintf(w, "  ✔ %-16s %s\n", r.Name, r.Duration.Round(100*time.Millisecond))
		case generator.StatusFailed:
			fmt.Fprintf(w, "  ✘ %-16s %v\n", r.Name, r.Err)
		default:
			fmt.Fprintf(w, "  - %-16s %s\n", r.Name, r.Status)
		}
	}
}
