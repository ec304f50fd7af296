package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
)

// TextParser handles plain text files. Plain text has no headings, so the
// whole file lands in the tree body and the outline stays empty.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newTreeBuilder()
	var current strings.Builder

	emit := func() {
		if current.Len() > 0 {
			b.block(current.String(), paragraphHTML(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	emit()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b.finish(TitleFromFilename(filename)), nil
}
