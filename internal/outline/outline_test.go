package outline

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Getting Started!!", "getting-started"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"###", ""},
		{"", ""},
		{"CI/CD in 2025", "cicd-in-2025"},
		{"Step 1 -- Install", "step-1-install"},
		{"- leading and trailing -", "leading-and-trailing"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"snake_case_name", "snakecasename"},
		{"Café Ops", "caf-ops"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := DeriveID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveID(tt.in), "derivation must be deterministic")
			assert.Equal(t, got, DeriveID(got), "derivation must be idempotent")
		})
	}
}

func sectionTree(titles ...string) *doctree.DocTree {
	tree := &doctree.DocTree{Title: "doc"}
	for _, title := range titles {
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: title,
			Level: 2,
			Children: []*doctree.DocNode{
				{Title: title + " detail", Level: 3},
			},
		})
	}
	return tree
}

func TestFromTree_OrderedSections(t *testing.T) {
	tree := sectionTree("Overview", "Setup", "Usage")

	o := FromTree(tree)

	require.Equal(t, 3, o.Len())
	assert.Equal(t, []string{"overview", "setup", "usage"}, o.IDs())
	for i, s := range o.Sections {
		assert.Equal(t, i, s.Order)
	}
	assert.Equal(t, "Setup", o.Sections[1].Text)
}

func TestFromTree_AppliesIDsToHeadings(t *testing.T) {
	tree := sectionTree("Overview", "Setup")

	FromTree(tree)

	assert.Equal(t, "overview", tree.Children[0].ID)
	assert.Equal(t, "overview-detail", tree.Children[0].Children[0].ID)
	assert.Equal(t, "setup", tree.Children[1].ID)
}

func TestFromTree_ExcludesDeepAndEmptyHeadings(t *testing.T) {
	tree := &doctree.DocTree{Children: []*doctree.DocNode{
		{Title: "Doc Title", Level: 1, Children: []*doctree.DocNode{
			{Title: "Intro", Level: 2, Children: []*doctree.DocNode{
				{Title: "Nested", Level: 3},
			}},
			{Title: "###", Level: 2},
			{Title: "Wrap Up", Level: 2},
		}},
	}}

	o := FromTree(tree)

	assert.Equal(t, []string{"intro", "wrap-up"}, o.IDs())
	assert.Equal(t, 1, o.Sections[1].Order)
	assert.Empty(t, tree.Children[0].ID, "h1 is not an anchor target")
}

func TestFromTree_DuplicateTitlesShareID(t *testing.T) {
	o := FromTree(sectionTree("Notes", "Notes"))

	assert.Equal(t, []string{"notes", "notes"}, o.IDs())
	assert.Equal(t, 0, o.Index("notes"))
}

func TestFromTree_Empty(t *testing.T) {
	assert.True(t, FromTree(&doctree.DocTree{}).Empty())
	assert.True(t, FromTree(nil).Empty())
}

func TestFromTree_RebuildReplacesOutline(t *testing.T) {
	first := FromTree(sectionTree("Overview", "Setup"))
	second := FromTree(sectionTree("Pricing", "FAQ"))

	for _, id := range first.IDs() {
		assert.False(t, second.Has(id), "stale id %q resolved in rebuilt outline", id)
	}
	assert.Equal(t, []string{"pricing", "faq"}, second.IDs())
}

func TestExtractRendered(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="blog-content">
<h1>Title</h1>
<h2 id="stale">Overview</h2><p>a</p>
<h3>Sub Part</h3>
<h2>Setup!</h2>
<h2>???</h2>
<h2>  Usage  </h2>
</div>`))
	require.NoError(t, err)

	o := ExtractRendered(doc)

	assert.Equal(t, []string{"overview", "setup", "usage"}, o.IDs())
	assert.Equal(t, "Usage", o.Sections[2].Text)

	id, ok := doc.Find("h2").First().Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "overview", id)
	id, _ = doc.Find("h3").Attr("id")
	assert.Equal(t, "sub-part", id)
	_, ok = doc.Find("h1").Attr("id")
	assert.False(t, ok)
}

func TestExtractHTML_ReturnsAnnotatedBody(t *testing.T) {
	o, body, err := ExtractHTML(strings.NewReader(`<h2>Getting Started!!</h2><p>x</p>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"getting-started"}, o.IDs())
	assert.Contains(t, body, `<h2 id="getting-started">Getting Started!!</h2>`)
}

func TestExtractHTML_NoHeadings(t *testing.T) {
	o, _, err := ExtractHTML(strings.NewReader(`<p>just text</p>`))
	require.NoError(t, err)
	assert.True(t, o.Empty())
}

func TestModelAndRenderedAgree(t *testing.T) {
	tree := sectionTree("Overview", "Setup", "Usage")
	var html strings.Builder
	for _, n := range tree.Children {
		html.WriteString("<h2>" + n.Title + "</h2><p>body</p>")
	}

	fromModel := FromTree(tree)
	fromRendered, _, err := ExtractHTML(strings.NewReader(html.String()))
	require.NoError(t, err)

	assert.Equal(t, fromModel, fromRendered)
}
