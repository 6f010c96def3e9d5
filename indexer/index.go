package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"mealprep/catalog"
	"mealprep/tools/storage"
)

// Result is the outcome of indexing a tree of recipe documents.
type Result struct {
	Catalog *catalog.Catalog
	Files   int
	// Problems lists documents that were skipped or only partly read.
	Problems []error
}

// Build walks fsys from root, parses every Markdown document and returns the catalog
// they form. Unreadable documents are skipped and reported in Problems.
func Build(ctx context.Context, fsys fs.FS, root string) (*Result, error) {
	res := &Result{}
	var recipes []catalog.RecipeSummary

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		res.Files++

		f, err := fsys.Open(p)
		if err != nil {
			res.Problems = append(res.Problems, err)
			return nil
		}
		defer f.Close()

		rec, err := ParseDocument(p, f)
		if err != nil {
			slog.Warn("INDEX: Problem reading recipe", "file", p, "error", err)
			res.Problems = append(res.Problems, err)
		}
		if rec.Name != "" {
			slog.Debug("INDEX: Parsed", "recipe", rec.Name, "active", rec.ActiveMinutes, "total", rec.TotalMinutes)
			recipes = append(recipes, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	res.Catalog = catalog.New(recipes)
	for _, w := range res.Catalog.Warnings() {
		res.Problems = append(res.Problems, fmt.Errorf("%s", w))
	}
	slog.Info("INDEX: Built", "files", res.Files, "recipes", res.Catalog.Len(), "problems", len(res.Problems))
	return res, nil
}

// Write encodes the catalog as a sorted index and saves it to sink.
func Write(ctx context.Context, c *catalog.Catalog, sink storage.CatalogSink) error {
	data, err := catalog.Encode(c)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := sink.Save(ctx, data); err != nil {
		return fmt.Errorf("save index to %s: %w", sink, err)
	}
	slog.Info("INDEX: Saved", "target", fmt.Sprint(sink), "recipes", c.Len(), "bytes", len(data))
	return nil
}
