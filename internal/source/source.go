// Package source enumerates the pages of a deck: a PDF, or a directory of
// slide images.
package source

import (
	"bufio"
	"strings"

	"github.com/gen2brain/go-fitz"
)

type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	// PageTitle returns a short label for the page, or "" if none is known.
	PageTitle(index int) string
	Close() error
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// PageTitle uses the first non-empty line of the page's text layer.
func (f *FitzPDFSource) PageTitle(index int) string {
	text, err := f.doc.Text(index)
	if err != nil {
		return ""
	}
	return firstLine(text)
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Заголовок страницы: первая непустая строка текста
func firstLine(text string) string {
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
