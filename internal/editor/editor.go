// Package editor orchestrates an edit manifest against one document:
// comments first, then changes, each entry resolved against a fresh index
// of the tree as it stands after prior entries applied.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"redline/internal/clock"
	"redline/internal/docx"
	"redline/internal/runindex"
	"redline/internal/splice"
	"redline/pkg/manifest"
)

// DefaultAuthor is used when neither the CLI flag nor the manifest names one.
const DefaultAuthor = "Reviewer"

const timeLayout = "2006-01-02T15:04:05Z"

// Options tunes one Apply call.
type Options struct {
	Author string // CLI override; wins over the manifest author
	DryRun bool
	Clock  clock.Clock
	Logger *slog.Logger
}

// Result is the record for one manifest entry. Index counts within the
// entry's kind.
type Result struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Outcome is the processing result for a whole manifest.
type Outcome struct {
	Input             string   `json:"input"`
	Output            string   `json:"output"`
	Author            string   `json:"author"`
	ChangesAttempted  int      `json:"changes_attempted"`
	ChangesSucceeded  int      `json:"changes_succeeded"`
	CommentsAttempted int      `json:"comments_attempted"`
	CommentsSucceeded int      `json:"comments_succeeded"`
	Results           []Result `json:"results"`
	Success           bool     `json:"success"`
}

// Apply runs the manifest against the store. Per-entry failures are
// recorded, not returned; the error covers hard conditions only (container
// or parts unreadable). The store is left dirty iff at least one entry
// mutated the tree; writing the output is the caller's step.
func Apply(store *docx.Store, m *manifest.Manifest, opts Options) (*Outcome, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	author := opts.Author
	if author == "" {
		author = m.Author
	}
	if author == "" {
		author = DefaultAuthor
	}
	date := opts.Clock.Now().UTC().Format(timeLayout)

	doc, err := store.Document()
	if err != nil {
		return nil, err
	}
	body := docx.Body(doc)

	out := &Outcome{
		Input:   store.Path(),
		Author:  author,
		Success: true,
		Results: []Result{},
	}

	sp := &splice.Splicer{Author: author, Date: date, Rev: splice.SeedRevisions(doc)}
	var cw *splice.CommentWriter
	if len(m.Comments) > 0 && !opts.DryRun {
		cw, err = splice.NewCommentWriter(store)
		if err != nil {
			return nil, err
		}
	}

	// Comments phase. Markers are zero-width, so later finds still see the
	// original visible text; deletions would not, which is why changes run
	// second.
	for i, c := range m.Comments {
		out.CommentsAttempted++
		res := Result{Index: i, Type: manifest.KindComment}
		if msg := c.Validate(); msg != "" {
			res.Message = msg
		} else {
			res = applyComment(body, cw, c, author, date, opts.DryRun, res)
		}
		if res.Success {
			out.CommentsSucceeded++
			if !opts.DryRun {
				store.MarkDirty(docx.PartDocument)
			}
		} else {
			out.Success = false
		}
		log.Debug("comment entry", "index", i, "anchor", c.Anchor, "success", res.Success)
		out.Results = append(out.Results, res)
	}

	// Changes phase. The index is rebuilt per entry: every splice
	// invalidates the previous snapshot, and "first match" is defined
	// against the document as already edited.
	for i, c := range m.Changes {
		out.ChangesAttempted++
		res := Result{Index: i, Type: c.Type}
		if c.Type == "" {
			res.Type = "change"
		}
		if msg := c.Validate(); msg != "" {
			res.Message = msg
		} else {
			res = applyChange(body, sp, c, opts.DryRun, res)
		}
		if res.Success {
			out.ChangesSucceeded++
			if !opts.DryRun {
				store.MarkDirty(docx.PartDocument)
			}
		} else {
			out.Success = false
		}
		log.Debug("change entry", "index", i, "type", c.Type, "target", c.Target(), "success", res.Success)
		out.Results = append(out.Results, res)
	}

	return out, nil
}

func applyComment(body *etree.Element, cw *splice.CommentWriter, c manifest.Comment, author, date string, dry bool, res Result) Result {
	ix := runindex.Build(body)
	r, ok := ix.Find(c.Anchor)
	if !ok {
		res.Message = fmt.Sprintf("anchor not found: %q", c.Anchor)
		return res
	}
	if !ix.WithinOneParagraph(r) {
		res.Message = fmt.Sprintf("anchor spans multiple paragraphs: %q", c.Anchor)
		return res
	}
	if dry {
		res.Success = true
		res.Message = fmt.Sprintf("would add comment on %q", c.Anchor)
		return res
	}
	id, err := cw.Annotate(ix, r, author, date, c.Text)
	if err != nil {
		res.Message = fmt.Sprintf("failed to add comment on %q: %v", c.Anchor, err)
		return res
	}
	res.Success = true
	res.Message = fmt.Sprintf("added comment %s on %q", id, c.Anchor)
	return res
}

func applyChange(body *etree.Element, sp *splice.Splicer, c manifest.Change, dry bool, res Result) Result {
	target := c.Target()
	ix := runindex.Build(body)
	r, ok := ix.Find(target)
	if !ok {
		res.Message = fmt.Sprintf("target phrase not found: %q", target)
		return res
	}
	if !ix.WithinOneParagraph(r) {
		res.Message = fmt.Sprintf("target spans multiple paragraphs: %q", target)
		return res
	}
	if dry {
		res.Success = true
		res.Message = fmt.Sprintf("would apply %s at first occurrence of %q", c.Type, target)
		return res
	}

	var err error
	switch c.Type {
	case manifest.KindReplace:
		err = sp.Replace(ix, r, c.Replace)
	case manifest.KindDelete:
		err = sp.Delete(ix, r)
	case manifest.KindInsertAfter:
		err = sp.InsertAfter(ix, r, c.Text)
	case manifest.KindInsertBefore:
		err = sp.InsertBefore(ix, r, c.Text)
	}
	if err != nil {
		res.Message = fmt.Sprintf("failed to apply %s at %q: %v", c.Type, target, err)
		return res
	}
	res.Success = true
	switch c.Type {
	case manifest.KindReplace:
		res.Message = fmt.Sprintf("replaced %q with %q", target, c.Replace)
	case manifest.KindDelete:
		res.Message = fmt.Sprintf("deleted %q", target)
	case manifest.KindInsertAfter:
		res.Message = fmt.Sprintf("inserted text after %q", target)
	case manifest.KindInsertBefore:
		res.Message = fmt.Sprintf("inserted text before %q", target)
	}
	return res
}
