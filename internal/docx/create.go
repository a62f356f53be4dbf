package docx

import (
	"archive/zip"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed all:template
var templateFS embed.FS

// templateOrder pins the part order of a freshly created container; the
// content-types part must come first for strict consumers.
var templateOrder = []string{
	PartContentTypes,
	"_rels/.rels",
	PartDocument,
	PartDocumentRels,
	PartCoreProps,
	PartAppProps,
}

// CreateEmpty writes a minimal valid .docx assembled from the embedded
// template parts. The result round-trips through Open and the edit path.
func CreateEmpty(outPath string) (err error) {
	parts := map[string][]byte{}
	err = fs.WalkDir(templateFS, "template", func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() {
			return nil
		}
		data, rerr := templateFS.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		rel, rerr := filepath.Rel("template", path)
		if rerr != nil {
			return rerr
		}
		parts[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load embedded template: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".redline-*.docx")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	written := map[string]bool{}
	for _, name := range templateOrder {
		data, ok := parts[name]
		if !ok {
			continue
		}
		if werr := writePart(zw, name, data); werr != nil {
			zw.Close()
			tmp.Close()
			return werr
		}
		written[name] = true
	}
	// Any template part not pinned by templateOrder still gets written.
	rest := make([]string, 0, len(parts))
	for name := range parts {
		if !written[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if werr := writePart(zw, name, parts[name]); werr != nil {
			zw.Close()
			tmp.Close()
			return werr
		}
	}
	if err = zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to finalize container: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmpName, outPath); err != nil {
		return fmt.Errorf("failed to write output %s: %w", outPath, err)
	}
	return nil
}
