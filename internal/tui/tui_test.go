package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{
			name:     "short line untouched",
			input:    "hello world",
			maxWidth: 20,
			want:     "hello world",
		},
		{
			name:     "wraps on word boundary",
			input:    "the quick brown fox jumps",
			maxWidth: 10,
			want:     "the quick\nbrown fox\njumps",
		},
		{
			name:     "zero width is passthrough",
			input:    "anything at all",
			maxWidth: 0,
			want:     "anything at all",
		},
		{
			name:     "keeps empty paragraphs",
			input:    "one\n\ntwo",
			maxWidth: 10,
			want:     "one\n\ntwo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.input, tt.maxWidth))
		})
	}
}

func TestListViewShowsSummary(t *testing.T) {
	m := browserModel()
	out := ModelView(m)
	assert.Contains(t, out, "2 tracked changes")
	assert.Contains(t, out, "1 comments")
}

func TestDetailViewShowsAnchor(t *testing.T) {
	m := browserModel()
	// Select the comment entry and open its detail view.
	m.list.Select(2)
	m.ActiveView = ViewDetail
	out := ModelView(m)
	assert.Contains(t, out, "Bob")
	assert.True(t, strings.Contains(out, "brown fox"))
}

func TestQuittingView(t *testing.T) {
	m := browserModel()
	m.ActiveView = ViewQuitting
	assert.Equal(t, "Goodbye!\n", ModelView(m))
}
