// Package diff computes the structured, review-layer comparison of two
// documents: LCS paragraph alignment, word and formatting diffs within
// aligned pairs, and set diffs for comments and tracked changes.
package diff

import (
	"sort"
	"strconv"
	"strings"

	"redline/pkg/docmodel"
)

// jaccardThreshold is the word-set similarity above which two unequal
// paragraphs still align as a modified pair.
const jaccardThreshold = 0.5

// Word-change and comment/paragraph entry kinds.
const (
	WordAdd     = "add"
	WordDelete  = "delete"
	WordReplace = "replace"
)

// MetadataChange is one differing package property.
type MetadataChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ParagraphRef identifies an unmatched paragraph on one side.
type ParagraphRef struct {
	Index int    `json:"index"`
	Style string `json:"style,omitempty"`
	Text  string `json:"text"`
}

// StyleChange records a style identifier change within a matched pair.
type StyleChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// WordChange is one entry of the word-level diff. Position is the token's
// index in the original stream: the old stream for delete and replace, the
// new stream for add.
type WordChange struct {
	Type     string `json:"type"`
	Old      string `json:"old,omitempty"`
	New      string `json:"new,omitempty"`
	Position int    `json:"position"`
}

// FormatChange is one differing formatting attribute for a word present in
// both paragraphs.
type FormatChange struct {
	Word      string `json:"word"`
	Attribute string `json:"attribute"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

// ParagraphMod is a matched pair that differs.
type ParagraphMod struct {
	OldIndex      int            `json:"old_index"`
	NewIndex      int            `json:"new_index"`
	OldText       string         `json:"old_text"`
	NewText       string         `json:"new_text"`
	StyleChange   *StyleChange   `json:"style_change,omitempty"`
	WordChanges   []WordChange   `json:"word_changes,omitempty"`
	FormatChanges []FormatChange `json:"format_changes,omitempty"`
}

// CommentMod is a comment present on both sides (same author and anchor)
// whose body changed.
type CommentMod struct {
	Author  string `json:"author"`
	Anchor  string `json:"anchor"`
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// Report is the full structured diff.
type Report struct {
	OldFile  string `json:"old_file"`
	NewFile  string `json:"new_file"`
	Metadata struct {
		Changes []MetadataChange `json:"changes"`
	} `json:"metadata"`
	Paragraphs struct {
		Added    []ParagraphRef `json:"added"`
		Deleted  []ParagraphRef `json:"deleted"`
		Modified []ParagraphMod `json:"modified"`
	} `json:"paragraphs"`
	Comments struct {
		Added    []docmodel.Comment `json:"added"`
		Deleted  []docmodel.Comment `json:"deleted"`
		Modified []CommentMod       `json:"modified"`
	} `json:"comments"`
	TrackedChanges struct {
		Added   []docmodel.TrackedChange `json:"added"`
		Deleted []docmodel.TrackedChange `json:"deleted"`
	} `json:"tracked_changes"`
	Summary Summary `json:"summary"`
}

// Summary carries the counts and the authoritative equality signal.
type Summary struct {
	MetadataChanges       int  `json:"metadata_changes"`
	ParagraphsAdded       int  `json:"paragraphs_added"`
	ParagraphsDeleted     int  `json:"paragraphs_deleted"`
	ParagraphsModified    int  `json:"paragraphs_modified"`
	CommentsAdded         int  `json:"comments_added"`
	CommentsDeleted       int  `json:"comments_deleted"`
	CommentsModified      int  `json:"comments_modified"`
	TrackedChangesAdded   int  `json:"tracked_changes_added"`
	TrackedChangesDeleted int  `json:"tracked_changes_deleted"`
	Identical             bool `json:"identical"`
}

// Compare diffs two read models.
func Compare(oldDoc, newDoc *docmodel.Document) *Report {
	r := &Report{OldFile: oldDoc.File, NewFile: newDoc.File}
	r.Metadata.Changes = metadataDiff(oldDoc.Metadata, newDoc.Metadata)
	paragraphDiff(oldDoc.Paragraphs, newDoc.Paragraphs, r)
	commentDiff(oldDoc.Comments, newDoc.Comments, r)
	trackedDiff(oldDoc.AllTrackedChanges(), newDoc.AllTrackedChanges(), r)
	r.Summary = summarize(r)
	return r
}

func metadataDiff(o, n docmodel.Metadata) []MetadataChange {
	changes := []MetadataChange{}
	add := func(field, ov, nv string) {
		if ov != nv {
			changes = append(changes, MetadataChange{Field: field, Old: ov, New: nv})
		}
	}
	add("title", o.Title, n.Title)
	add("author", o.Author, n.Author)
	add("last_modified_by", o.LastModifiedBy, n.LastModifiedBy)
	add("created", o.Created, n.Created)
	add("modified", o.Modified, n.Modified)
	add("revision", o.Revision, n.Revision)
	if o.WordCount != n.WordCount {
		changes = append(changes, MetadataChange{
			Field: "word_count",
			Old:   strconv.Itoa(o.WordCount),
			New:   strconv.Itoa(n.WordCount),
		})
	}
	return changes
}

// similarParagraphs is the alignment predicate: equal text, both blank, or
// word-set Jaccard similarity at or above the threshold.
func similarParagraphs(a, b docmodel.Paragraph) bool {
	if a.Text == b.Text {
		return true
	}
	aw := strings.Fields(a.Text)
	bw := strings.Fields(b.Text)
	if len(aw) == 0 && len(bw) == 0 {
		return true
	}
	return jaccard(aw, bw) >= jaccardThreshold
}

func jaccard(a, b []string) float64 {
	as := map[string]struct{}{}
	for _, w := range a {
		as[w] = struct{}{}
	}
	bs := map[string]struct{}{}
	for _, w := range b {
		bs[w] = struct{}{}
	}
	inter := 0
	for w := range as {
		if _, ok := bs[w]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func paragraphDiff(oldP, newP []docmodel.Paragraph, r *Report) {
	r.Paragraphs.Added = []ParagraphRef{}
	r.Paragraphs.Deleted = []ParagraphRef{}
	r.Paragraphs.Modified = []ParagraphMod{}

	matches := lcsPairs(len(oldP), len(newP), func(i, j int) bool {
		return similarParagraphs(oldP[i], newP[j])
	})

	oi, ni := 0, 0
	flushGap := func(oEnd, nEnd int) {
		for ; oi < oEnd; oi++ {
			p := oldP[oi]
			r.Paragraphs.Deleted = append(r.Paragraphs.Deleted, ParagraphRef{Index: p.Index, Style: p.Style, Text: p.Text})
		}
		for ; ni < nEnd; ni++ {
			p := newP[ni]
			r.Paragraphs.Added = append(r.Paragraphs.Added, ParagraphRef{Index: p.Index, Style: p.Style, Text: p.Text})
		}
	}
	for _, m := range matches {
		flushGap(m.a, m.b)
		if mod, changed := compareParagraphs(oldP[m.a], newP[m.b]); changed {
			r.Paragraphs.Modified = append(r.Paragraphs.Modified, mod)
		}
		oi, ni = m.a+1, m.b+1
	}
	flushGap(len(oldP), len(newP))
}

// compareParagraphs reports a modification iff text, style, or at least
// one formatting attribute differs.
func compareParagraphs(o, n docmodel.Paragraph) (ParagraphMod, bool) {
	mod := ParagraphMod{
		OldIndex: o.Index,
		NewIndex: n.Index,
		OldText:  o.Text,
		NewText:  n.Text,
	}
	if o.Style != n.Style {
		mod.StyleChange = &StyleChange{Old: o.Style, New: n.Style}
	}
	if o.Text != n.Text {
		mod.WordChanges = wordDiff(strings.Fields(o.Text), strings.Fields(n.Text))
	}
	mod.FormatChanges = formatDiff(o, n)
	changed := o.Text != n.Text || mod.StyleChange != nil || len(mod.FormatChanges) > 0
	return mod, changed
}

// wordDiff computes the token-level diff, then collapses each adjacent
// delete-then-add pair into a single replace.
func wordDiff(oldW, newW []string) []WordChange {
	matches := lcsPairs(len(oldW), len(newW), func(i, j int) bool {
		return oldW[i] == newW[j]
	})

	var raw []WordChange
	oi, ni := 0, 0
	flushGap := func(oEnd, nEnd int) {
		for ; oi < oEnd; oi++ {
			raw = append(raw, WordChange{Type: WordDelete, Old: oldW[oi], Position: oi})
		}
		for ; ni < nEnd; ni++ {
			raw = append(raw, WordChange{Type: WordAdd, New: newW[ni], Position: ni})
		}
	}
	for _, m := range matches {
		flushGap(m.a, m.b)
		oi, ni = m.a+1, m.b+1
	}
	flushGap(len(oldW), len(newW))

	var out []WordChange
	for i := 0; i < len(raw); i++ {
		if i+1 < len(raw) && raw[i].Type == WordDelete && raw[i+1].Type == WordAdd {
			out = append(out, WordChange{
				Type:     WordReplace,
				Old:      raw[i].Old,
				New:      raw[i+1].New,
				Position: raw[i].Position,
			})
			i++
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

// wordFormats maps each word to the format of the first run that contains
// it; later occurrences of the same word are ignored.
func wordFormats(p docmodel.Paragraph) map[string]docmodel.RunFormat {
	out := map[string]docmodel.RunFormat{}
	for _, run := range p.Runs {
		fields := strings.Fields(run.Text)
		if len(fields) == 0 {
			continue
		}
		word := fields[0]
		if _, ok := out[word]; !ok {
			out[word] = run.Format
		}
	}
	return out
}

func formatDiff(o, n docmodel.Paragraph) []FormatChange {
	oldF := wordFormats(o)
	newF := wordFormats(n)
	var words []string
	for w := range oldF {
		if _, ok := newF[w]; ok {
			words = append(words, w)
		}
	}
	sort.Strings(words)

	var out []FormatChange
	for _, w := range words {
		of, nf := oldF[w], newF[w]
		add := func(attr, ov, nv string) {
			if ov != nv {
				out = append(out, FormatChange{Word: w, Attribute: attr, Old: ov, New: nv})
			}
		}
		add("bold", boolStr(of.Bold), boolStr(nf.Bold))
		add("italic", boolStr(of.Italic), boolStr(nf.Italic))
		add("underline", boolStr(of.Underlined()), boolStr(nf.Underlined()))
		add("font_name", of.FontName, nf.FontName)
		add("font_size", of.FontSize, nf.FontSize)
		add("color", of.Color, nf.Color)
	}
	return out
}

// commentKey matches comments across documents by author plus anchor text.
func commentKey(c docmodel.Comment) string {
	return c.Author + "\x00" + c.AnchorText
}

func commentDiff(oldC, newC []docmodel.Comment, r *Report) {
	r.Comments.Added = []docmodel.Comment{}
	r.Comments.Deleted = []docmodel.Comment{}
	r.Comments.Modified = []CommentMod{}

	oldByKey := map[string]docmodel.Comment{}
	for _, c := range oldC {
		oldByKey[commentKey(c)] = c
	}
	newByKey := map[string]docmodel.Comment{}
	for _, c := range newC {
		newByKey[commentKey(c)] = c
	}
	for _, c := range oldC {
		n, ok := newByKey[commentKey(c)]
		if !ok {
			r.Comments.Deleted = append(r.Comments.Deleted, c)
		} else if c.Text != n.Text {
			r.Comments.Modified = append(r.Comments.Modified, CommentMod{
				Author:  c.Author,
				Anchor:  c.AnchorText,
				OldText: c.Text,
				NewText: n.Text,
			})
		}
	}
	for _, c := range newC {
		if _, ok := oldByKey[commentKey(c)]; !ok {
			r.Comments.Added = append(r.Comments.Added, c)
		}
	}
}

// trackedKey matches revisions across documents by identity.
func trackedKey(tc docmodel.TrackedChange) string {
	return tc.Type + "\x00" + tc.Text + "\x00" + tc.Author
}

func trackedDiff(oldT, newT []docmodel.TrackedChange, r *Report) {
	r.TrackedChanges.Added = []docmodel.TrackedChange{}
	r.TrackedChanges.Deleted = []docmodel.TrackedChange{}

	oldKeys := map[string]struct{}{}
	for _, tc := range oldT {
		oldKeys[trackedKey(tc)] = struct{}{}
	}
	newKeys := map[string]struct{}{}
	for _, tc := range newT {
		newKeys[trackedKey(tc)] = struct{}{}
	}
	for _, tc := range oldT {
		if _, ok := newKeys[trackedKey(tc)]; !ok {
			r.TrackedChanges.Deleted = append(r.TrackedChanges.Deleted, tc)
		}
	}
	for _, tc := range newT {
		if _, ok := oldKeys[trackedKey(tc)]; !ok {
			r.TrackedChanges.Added = append(r.TrackedChanges.Added, tc)
		}
	}
}

func boolStr(b bool) string {
	return strconv.FormatBool(b)
}

func summarize(r *Report) Summary {
	s := Summary{
		MetadataChanges:       len(r.Metadata.Changes),
		ParagraphsAdded:       len(r.Paragraphs.Added),
		ParagraphsDeleted:     len(r.Paragraphs.Deleted),
		ParagraphsModified:    len(r.Paragraphs.Modified),
		CommentsAdded:         len(r.Comments.Added),
		CommentsDeleted:       len(r.Comments.Deleted),
		CommentsModified:      len(r.Comments.Modified),
		TrackedChangesAdded:   len(r.TrackedChanges.Added),
		TrackedChangesDeleted: len(r.TrackedChanges.Deleted),
	}
	s.Identical = s.MetadataChanges == 0 &&
		s.ParagraphsAdded == 0 && s.ParagraphsDeleted == 0 && s.ParagraphsModified == 0 &&
		s.CommentsAdded == 0 && s.CommentsDeleted == 0 && s.CommentsModified == 0 &&
		s.TrackedChangesAdded == 0 && s.TrackedChangesDeleted == 0
	return s
}
