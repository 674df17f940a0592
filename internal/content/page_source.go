package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/rulesweb/internal/document"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// PageSource is a single fixed page, used for the gateway and not found pages.
type PageSource struct {
	Head  *Head
	Title string
	Body  string
	// BodyFile, when set, is read on every Value call instead of Body.
	BodyFile  string
	BodyClass string
}

func (s *PageSource) Value() (string, error) {
	body := s.Body
	if s.BodyFile != "" {
		// #nosec G304 -- configured page file
		data, err := os.ReadFile(s.BodyFile)
		if err != nil {
			return "", errors.ContentError(err, "failed to read page").WithContext("path", s.BodyFile).Build()
		}
		body = string(data)
	}
	return assemblePage(s.Head, s.Title, s.BodyClass, body)
}

func (s *PageSource) Document() (*document.Document, error) {
	return parseValue(s)
}

// PDFSource serves the first PDF file found in a directory. The file is final
// content and has no document tree.
type PDFSource struct {
	Dir string
}

func (s *PDFSource) Value() (string, error) {
	file, err := s.File()
	if err != nil {
		return "", err
	}
	// #nosec G304 -- file is listed from the configured pdf directory
	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.ContentError(err, "failed to read pdf").WithContext("path", file).Build()
	}
	return string(data), nil
}

func (s *PDFSource) Document() (*document.Document, error) {
	return nil, errors.ContentError(nil, "pdf content has no document tree").Build()
}

// File returns the path of the PDF that Value serves.
func (s *PDFSource) File() (string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", errors.ContentError(err, "failed to read pdf directory").WithContext("dir", s.Dir).Build()
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", errors.NotFoundError("no pdf available").WithContext("dir", s.Dir).Build()
	}
	sort.Strings(names)
	return filepath.Join(s.Dir, names[0]), nil
}
