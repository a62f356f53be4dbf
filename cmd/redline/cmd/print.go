package cmd

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"redline/internal/diff"
	"redline/internal/editor"
	"redline/pkg/docmodel"
)

// printOutcome renders an edit run as text, one line per manifest entry.
func printOutcome(o *editor.Outcome, dry bool) {
	for _, r := range o.Results {
		mark := "ok "
		if !r.Success {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %s: %s\n", mark, r.Type, r.Message)
	}
	verb := "applied"
	if dry {
		verb = "would apply"
	}
	fmt.Printf("%s %d/%d changes, %d/%d comments",
		verb, o.ChangesSucceeded, o.ChangesAttempted, o.CommentsSucceeded, o.CommentsAttempted)
	if o.Output != "" {
		fmt.Printf(" -> %s", o.Output)
	}
	fmt.Println()
}

// printDocument renders the --read view as text.
func printDocument(doc *docmodel.Document) {
	m := doc.Metadata
	if m.Title != "" {
		fmt.Println("Title:", m.Title)
	}
	if m.Author != "" {
		fmt.Println("Author:", m.Author)
	}
	fmt.Printf("Words: %d  Paragraphs: %d\n\n", m.WordCount, m.ParagraphCount)

	for _, p := range doc.Paragraphs {
		fmt.Printf("¶%d", p.Index)
		if p.Style != "" {
			fmt.Printf(" [%s]", p.Style)
		}
		fmt.Printf(" %s\n", p.Text)
		for _, tc := range p.TrackedChanges {
			sign := "+"
			if tc.Type == docmodel.ChangeDelete {
				sign = "-"
			}
			fmt.Printf("    %s %q by %s (%s)\n", sign, tc.Text, tc.Author, tc.Date)
		}
	}

	if len(doc.Comments) > 0 {
		fmt.Println()
		for _, c := range doc.Comments {
			fmt.Printf("comment #%s [%s] on %q: %s\n", c.ID, c.Author, c.AnchorText, c.Text)
		}
	}

	s := doc.Summarize()
	fmt.Printf("\n%d tracked changes (%d insertions, %d deletions), %d comments\n",
		s.TotalTrackedChanges, s.Insertions, s.Deletions, s.TotalComments)
}

// printReport renders a semantic diff as text. Modified paragraphs get an
// inline character-level diff so small wording edits are easy to spot.
func printReport(r *diff.Report) {
	if r.Summary.Identical {
		fmt.Println("Documents are identical.")
		return
	}
	fmt.Printf("--- %s\n+++ %s\n", r.OldFile, r.NewFile)

	for _, mc := range r.Metadata.Changes {
		fmt.Printf("metadata %s: %q -> %q\n", mc.Field, mc.Old, mc.New)
	}

	for _, p := range r.Paragraphs.Deleted {
		fmt.Printf("- ¶%d %s\n", p.Index, p.Text)
	}
	for _, p := range r.Paragraphs.Added {
		fmt.Printf("+ ¶%d %s\n", p.Index, p.Text)
	}
	for _, m := range r.Paragraphs.Modified {
		fmt.Printf("~ ¶%d %s\n", m.OldIndex, inlineDiff(m.OldText, m.NewText))
		if m.StyleChange != nil {
			fmt.Printf("    style: %s -> %s\n", m.StyleChange.Old, m.StyleChange.New)
		}
		for _, fc := range m.FormatChanges {
			fmt.Printf("    format %q %s: %s -> %s\n", fc.Word, fc.Attribute, fc.Old, fc.New)
		}
	}

	for _, c := range r.Comments.Deleted {
		fmt.Printf("- comment [%s] on %q: %s\n", c.Author, c.AnchorText, c.Text)
	}
	for _, c := range r.Comments.Added {
		fmt.Printf("+ comment [%s] on %q: %s\n", c.Author, c.AnchorText, c.Text)
	}
	for _, c := range r.Comments.Modified {
		fmt.Printf("~ comment [%s] on %q: %s\n", c.Author, c.Anchor, inlineDiff(c.OldText, c.NewText))
	}

	for _, tc := range r.TrackedChanges.Deleted {
		fmt.Printf("- tracked %s %q by %s\n", tc.Type, tc.Text, tc.Author)
	}
	for _, tc := range r.TrackedChanges.Added {
		fmt.Printf("+ tracked %s %q by %s\n", tc.Type, tc.Text, tc.Author)
	}

	s := r.Summary
	fmt.Printf("\n%d paragraphs changed (+%d -%d ~%d), %d comment changes, %d tracked-change changes\n",
		s.ParagraphsAdded+s.ParagraphsDeleted+s.ParagraphsModified,
		s.ParagraphsAdded, s.ParagraphsDeleted, s.ParagraphsModified,
		s.CommentsAdded+s.CommentsDeleted+s.CommentsModified,
		s.TrackedChangesAdded+s.TrackedChangesDeleted)
}

// inlineDiff renders old vs new as a single line with [-..-] and [+..+]
// spans.
func inlineDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+")
			b.WriteString(d.Text)
			b.WriteString("+]")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
