package docmodel

import (
	"sort"
	"strings"
)

// Tracked-change types as they appear in JSON output.
const (
	ChangeInsert = "insert"
	ChangeDelete = "delete"
)

// RunFormat is the formatting attributes of a run that the differ and
// textconv care about. Underline is tri-state: nil means absent, a pointer
// to false means an explicit off. FontSize is kept verbatim in half-points.
type RunFormat struct {
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline *bool   `json:"underline,omitempty"`
	Strike    bool    `json:"strike,omitempty"`
	FontName  string  `json:"font_name,omitempty"`
	FontSize  string  `json:"font_size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Highlight string  `json:"highlight,omitempty"`
}

// Underlined reports the effective underline state.
func (f RunFormat) Underlined() bool {
	return f.Underline != nil && *f.Underline
}

// Run is a contiguous span of visible text with uniform formatting.
type Run struct {
	Text     string    `json:"text"`
	Format   RunFormat `json:"format"`
	Inserted bool      `json:"inserted,omitempty"` // text inside w:ins / w:moveTo
}

// TrackedChange is one revision recorded in the document.
type TrackedChange struct {
	Type   string `json:"type"` // "insert" or "delete"
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date"` // ISO-8601 UTC, second precision
	ID     string `json:"id"`
}

// Paragraph is the read-model view of one body paragraph.
type Paragraph struct {
	Index          int             `json:"index"`
	Style          string          `json:"style,omitempty"`
	Text           string          `json:"text"` // visible text
	Runs           []Run           `json:"-"`
	TrackedChanges []TrackedChange `json:"tracked_changes"`
}

// Comment is an anchored comment joined from the range markers in the main
// document and its body in the comments part.
type Comment struct {
	ID             string `json:"id"`
	Author         string `json:"author"`
	Date           string `json:"date"`
	AnchorText     string `json:"anchor_text"`
	Text           string `json:"text"`
	ParagraphIndex int    `json:"paragraph_index"`
}

// Table carries cell text only; the differ compares nothing else.
type Table struct {
	Index          int        `json:"index"`
	Rows           int        `json:"rows"`
	Cols           int        `json:"cols"`
	Cells          [][]string `json:"cells"`
	ParagraphIndex int        `json:"paragraph_index"` // body paragraphs preceding the table
}

// Image is an embedded media part.
type Image struct {
	RelID     string `json:"rel_id,omitempty"`
	FileName  string `json:"file_name"`
	MediaType string `json:"media_type"`
	Bytes     int    `json:"bytes"`
	SHA256    string `json:"sha256"`
}

// HeaderFooter is the text of one header or footer part.
type HeaderFooter struct {
	Kind  string `json:"kind"`  // "header" or "footer"
	Scope string `json:"scope"` // "default", "first", "even"
	Text  string `json:"text"`
}

// Metadata is the package-level properties record.
type Metadata struct {
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	LastModifiedBy string `json:"last_modified_by,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	Revision       string `json:"revision,omitempty"`
	WordCount      int    `json:"word_count"`
	ParagraphCount int    `json:"paragraph_count"`
}

// Document is the neutral read model every read-side subsystem consumes.
type Document struct {
	File           string         `json:"file"`
	Paragraphs     []Paragraph    `json:"paragraphs"`
	Comments       []Comment      `json:"comments"`
	Tables         []Table        `json:"tables,omitempty"`
	Images         []Image        `json:"images,omitempty"`
	HeadersFooters []HeaderFooter `json:"headers_footers,omitempty"`
	Metadata       Metadata       `json:"metadata"`
}

// Summary aggregates the review layer for --read output.
type Summary struct {
	TotalTrackedChanges int      `json:"total_tracked_changes"`
	Insertions          int      `json:"insertions"`
	Deletions           int      `json:"deletions"`
	TotalComments       int      `json:"total_comments"`
	ChangeAuthors       []string `json:"change_authors"`
	CommentAuthors      []string `json:"comment_authors"`
}

// AllTrackedChanges flattens the per-paragraph change lists in order.
func (d *Document) AllTrackedChanges() []TrackedChange {
	var out []TrackedChange
	for _, p := range d.Paragraphs {
		out = append(out, p.TrackedChanges...)
	}
	return out
}

// Summarize computes the review-layer summary.
func (d *Document) Summarize() Summary {
	s := Summary{TotalComments: len(d.Comments)}
	changeAuthors := map[string]struct{}{}
	commentAuthors := map[string]struct{}{}
	for _, tc := range d.AllTrackedChanges() {
		s.TotalTrackedChanges++
		switch tc.Type {
		case ChangeInsert:
			s.Insertions++
		case ChangeDelete:
			s.Deletions++
		}
		changeAuthors[tc.Author] = struct{}{}
	}
	for _, c := range d.Comments {
		commentAuthors[c.Author] = struct{}{}
	}
	s.ChangeAuthors = sortedKeys(changeAuthors)
	s.CommentAuthors = sortedKeys(commentAuthors)
	return s
}

// WordCount splits every paragraph's visible text on whitespace runs.
func (d *Document) WordCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		n += len(strings.Fields(p.Text))
	}
	return n
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
