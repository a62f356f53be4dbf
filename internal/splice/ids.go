package splice

import (
	"strconv"

	"github.com/beevik/etree"

	"redline/internal/docx"
)

// Revisions hands out w:id values for new w:ins/w:del elements. It is owned
// by one edit run, never process-global.
type Revisions struct {
	next int
}

// SeedRevisions scans every revision container in the document and starts
// the counter one past the largest ID found.
func SeedRevisions(doc *etree.Document) *Revisions {
	maxID := 0
	walkElements(doc.Root(), func(e *etree.Element) {
		switch {
		case docx.Is(e, "ins"), docx.Is(e, "del"), docx.Is(e, "moveFrom"), docx.Is(e, "moveTo"):
			if n, err := strconv.Atoi(docx.Attr(e, "id")); err == nil && n > maxID {
				maxID = n
			}
		}
	})
	return &Revisions{next: maxID + 1}
}

// Next returns a fresh revision ID.
func (r *Revisions) Next() string {
	id := r.next
	r.next++
	return strconv.Itoa(id)
}

// commentIDs tracks comment IDs in use across the document and the comments
// part. Allocation picks the smallest non-negative integer not in use, and
// an allocated ID is never handed out twice.
type commentIDs struct {
	used map[int]bool
}

func collectCommentIDs(doc, comments *etree.Document) *commentIDs {
	ids := &commentIDs{used: map[int]bool{}}
	record := func(e *etree.Element) {
		switch {
		case docx.Is(e, "commentRangeStart"), docx.Is(e, "commentRangeEnd"),
			docx.Is(e, "commentReference"), docx.Is(e, "comment"):
			if n, err := strconv.Atoi(docx.Attr(e, "id")); err == nil && n >= 0 {
				ids.used[n] = true
			}
		}
	}
	walkElements(doc.Root(), record)
	if comments != nil {
		walkElements(comments.Root(), record)
	}
	return ids
}

func (c *commentIDs) alloc() string {
	for i := 0; ; i++ {
		if !c.used[i] {
			c.used[i] = true
			return strconv.Itoa(i)
		}
	}
}

// walkElements visits every element in the subtree in document order.
func walkElements(e *etree.Element, fn func(*etree.Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, ch := range e.ChildElements() {
		walkElements(ch, fn)
	}
}
