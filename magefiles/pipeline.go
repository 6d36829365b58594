//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func cli(args ...string) error {
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Extract finds candidate entity phrases in data/raw and writes data/preprocessed.
func Extract() error {
	mg.Deps(Build)
	return cli("extract")
}

// Corpus builds the BIO-tagged dataset from data/preprocessed into dataset/.
func Corpus() error {
	mg.Deps(Build)
	return cli("build")
}

// Index ingests dataset/dataset.json into the SQLite corpus index.
func Index() error {
	mg.Deps(Build)
	return cli("store", "ingest")
}
