// Package publish turns a page into markdown, for terminal preview or for writing to disk.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"biolink-cli/internal/model"
)

type WriteOptions struct {
	IncludeMeta bool
	Overwrite   bool
}

type WriteResult struct {
	Written []string `json:"written" yaml:"written"`
}

// WritePage writes <toDir>/<page id>.md.
func WritePage(p *model.Page, toDir string, opt WriteOptions) (WriteResult, error) {
	if p == nil {
		return WriteResult{}, errors.New("missing page")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderMarkdown(p, RenderOptions{IncludeMeta: opt.IncludeMeta})
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(toDir, p.ID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
