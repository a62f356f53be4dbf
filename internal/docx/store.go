package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Well-known part names inside the OPC container.
const (
	PartContentTypes = "[Content_Types].xml"
	PartDocument     = "word/document.xml"
	PartComments     = "word/comments.xml"
	PartDocumentRels = "word/_rels/document.xml.rels"
	PartCoreProps    = "docProps/core.xml"
	PartAppProps     = "docProps/app.xml"
)

const commentsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
const commentsRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"

// ErrNotDocx marks containers that are not valid .docx packages.
var ErrNotDocx = errors.New("not a valid .docx package")

// Store gives uniform access to the named XML parts of one .docx container.
// The main document and comments parts are exposed as mutable etree trees;
// every part never marked dirty is copied through Save byte-for-byte.
type Store struct {
	path string
	zr   *zip.ReadCloser

	doc      *etree.Document
	comments *etree.Document
	// replaced holds re-parsed auxiliary parts pending write.
	replaced map[string]*etree.Document

	// dirty parts are re-serialized on Save; everything else is raw-copied.
	dirty map[string]bool
	// commentsAdded is set when the comments part did not exist in the input
	// and must be appended (with content-type and relationship entries).
	commentsAdded bool
}

// Open opens path for reading. Fatal conditions: missing file, not a zip,
// no main document part.
func Open(path string) (*Store, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotDocx, err)
	}
	s := &Store{path: path, zr: zr, dirty: map[string]bool{}}
	if s.file(PartDocument) == nil {
		zr.Close()
		return nil, fmt.Errorf("%s: %w: main document part %s is absent", path, ErrNotDocx, PartDocument)
	}
	return s, nil
}

// Close releases the underlying container.
func (s *Store) Close() error {
	if s.zr == nil {
		return nil
	}
	err := s.zr.Close()
	s.zr = nil
	return err
}

// Path returns the path the store was opened from.
func (s *Store) Path() string { return s.path }

func (s *Store) file(name string) *zip.File {
	for _, f := range s.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasPart reports whether the container holds a part with the given name.
func (s *Store) HasPart(name string) bool {
	if name == PartComments && s.commentsAdded {
		return true
	}
	return s.file(name) != nil
}

// PartNames lists every part in container order.
func (s *Store) PartNames() []string {
	names := make([]string, 0, len(s.zr.File))
	for _, f := range s.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// ReadPart returns the raw bytes of a part.
func (s *Store) ReadPart(name string) ([]byte, error) {
	f := s.file(name)
	if f == nil {
		return nil, fmt.Errorf("part not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}
	return data, nil
}

// ReadPartXML parses a part into an etree document.
func (s *Store) ReadPartXML(name string) (*etree.Document, error) {
	data, err := s.ReadPart(name)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse part %s: %w", name, err)
	}
	return doc, nil
}

// Document returns the mutable main document tree, parsing it on first use.
func (s *Store) Document() (*etree.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	doc, err := s.ReadPartXML(PartDocument)
	if err != nil {
		return nil, err
	}
	if Body(doc) == nil {
		return nil, fmt.Errorf("%s: %w: document part has no body", s.path, ErrNotDocx)
	}
	s.doc = doc
	return s.doc, nil
}

// Comments returns the comments part tree, or nil if the container has none
// and none has been created yet.
func (s *Store) Comments() (*etree.Document, error) {
	if s.comments != nil {
		return s.comments, nil
	}
	if s.file(PartComments) == nil {
		return nil, nil
	}
	doc, err := s.ReadPartXML(PartComments)
	if err != nil {
		return nil, err
	}
	s.comments = doc
	return s.comments, nil
}

// EnsureComments returns the comments part tree, creating an empty part plus
// its content-type and relationship entries on first write.
func (s *Store) EnsureComments() (*etree.Document, error) {
	if doc, err := s.Comments(); err != nil || doc != nil {
		return doc, err
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:comments")
	root.CreateAttr("xmlns:w", NSWordprocessingML)
	s.comments = doc
	s.commentsAdded = true
	s.dirty[PartComments] = true
	if err := s.registerCommentsPart(); err != nil {
		return nil, err
	}
	return s.comments, nil
}

// registerCommentsPart adds the content-type override and the document
// relationship that make a fresh comments part reachable.
func (s *Store) registerCommentsPart() error {
	ct, err := s.ReadPartXML(PartContentTypes)
	if err != nil {
		return err
	}
	override := ct.Root().CreateElement("Override")
	override.CreateAttr("PartName", "/"+PartComments)
	override.CreateAttr("ContentType", commentsContentType)
	s.setReplacement(PartContentTypes, ct)

	var rels *etree.Document
	if s.file(PartDocumentRels) != nil {
		rels, err = s.ReadPartXML(PartDocumentRels)
		if err != nil {
			return err
		}
	} else {
		rels = etree.NewDocument()
		rels.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := rels.CreateElement("Relationships")
		root.CreateAttr("xmlns", NSRelationships)
	}
	rel := rels.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", s.freeRelID(rels))
	rel.CreateAttr("Type", commentsRelType)
	rel.CreateAttr("Target", "comments.xml")
	s.setReplacement(PartDocumentRels, rels)
	return nil
}

// freeRelID picks the first unused rIdN in a relationships part.
func (s *Store) freeRelID(rels *etree.Document) string {
	used := map[string]bool{}
	for _, rel := range rels.Root().ChildElements() {
		used[Attr(rel, "Id")] = true
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("rId%d", i)
		if !used[id] {
			return id
		}
	}
}

// Relationships returns the Id→Target mapping of the document rels part.
func (s *Store) Relationships() (map[string]string, error) {
	out := map[string]string{}
	if s.file(PartDocumentRels) == nil {
		return out, nil
	}
	rels, err := s.ReadPartXML(PartDocumentRels)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels.Root().ChildElements() {
		out[Attr(rel, "Id")] = Attr(rel, "Target")
	}
	return out, nil
}

// MediaNames lists media parts (word/media/...) in a stable order.
func (s *Store) MediaNames() []string {
	var names []string
	for _, f := range s.zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

// MarkDirty schedules a part that was mutated through its tree for rewrite.
func (s *Store) MarkDirty(name string) {
	s.dirty[name] = true
}

// Dirty reports whether any part has pending modifications.
func (s *Store) Dirty() bool { return len(s.dirty) > 0 }

func (s *Store) setReplacement(name string, doc *etree.Document) {
	if s.replaced == nil {
		s.replaced = map[string]*etree.Document{}
	}
	s.replaced[name] = doc
	s.dirty[name] = true
}

// Save writes the container to outPath. Dirty parts are re-serialized from
// their trees; every other part is copied raw, compressed bytes untouched.
// The write goes through a temporary file in the target directory so outPath
// may equal the input path.
func (s *Store) Save(outPath string) (err error) {
	serialized := map[string][]byte{}
	if s.dirty[PartDocument] && s.doc != nil {
		b, werr := s.doc.WriteToBytes()
		if werr != nil {
			return fmt.Errorf("failed to serialize %s: %w", PartDocument, werr)
		}
		serialized[PartDocument] = b
	}
	if s.dirty[PartComments] && s.comments != nil {
		b, werr := s.comments.WriteToBytes()
		if werr != nil {
			return fmt.Errorf("failed to serialize %s: %w", PartComments, werr)
		}
		serialized[PartComments] = b
	}
	for name, doc := range s.replaced {
		b, werr := doc.WriteToBytes()
		if werr != nil {
			return fmt.Errorf("failed to serialize %s: %w", name, werr)
		}
		serialized[name] = b
	}

	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, ".redline-*.docx")
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
	for _, f := range s.zr.File {
		if data, ok := serialized[f.Name]; ok {
			if werr := writePart(zw, f.Name, data); werr != nil {
				zw.Close()
				tmp.Close()
				return werr
			}
			delete(serialized, f.Name)
			continue
		}
		if werr := copyRaw(zw, f); werr != nil {
			zw.Close()
			tmp.Close()
			return werr
		}
	}
	// Parts that did not exist in the input (a fresh comments part, or a
	// fresh rels part) are appended after the originals.
	names := make([]string, 0, len(serialized))
	for name := range serialized {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if werr := writePart(zw, name, serialized[name]); werr != nil {
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

func writePart(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", name, err)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write part %s: %w", name, err)
	}
	return nil
}

// copyRaw transfers a zip entry without recompressing, preserving the
// stored bytes bit-for-bit.
func copyRaw(zw *zip.Writer, f *zip.File) error {
	r, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("failed to open part %s: %w", f.Name, err)
	}
	header := f.FileHeader
	w, err := zw.CreateRaw(&header)
	if err != nil {
		return fmt.Errorf("failed to copy part %s: %w", f.Name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to copy part %s: %w", f.Name, err)
	}
	return nil
}
