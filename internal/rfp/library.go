// Package rfp discovers RFP documents in a directory and reads their text.
package rfp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoDocuments is returned when the library holds no RFP documents.
var ErrNoDocuments = errors.New("no RFP files found")

var extensions = map[string]bool{
	".txt": true,
	".pdf": true,
}

// Document is an RFP ready for the pipeline.
type Document struct {
	Name string
	Path string
	Text string
}

// Library lists RFP documents stored in a directory.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the directory the library reads from.
func (l *Library) Dir() string {
	return l.dir
}

// List returns the paths of all .txt and .pdf files in the directory, sorted by file name.
// A missing directory yields no documents.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list rfp dir %q: %w", l.dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}

	sort.Strings(paths)

	return paths, nil
}

// First reads the first document of the library.
func (l *Library) First() (*Document, error) {
	paths, err := l.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, l.dir)
	}

	return Open(paths[0])
}

// Open reads a document from path.
func Open(path string) (*Document, error) {
	text, err := ReadText(path)
	if err != nil {
		return nil, err
	}

	return &Document{Name: filepath.Base(path), Path: path, Text: text}, nil
}

// ReadText returns the text of a plain text or PDF file.
func ReadText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read rfp %q: %w", path, err)
	}

	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %q: %w", path, err)
	}
	defer f.Close()

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in pdf %q", path)
	}

	return text, nil
}
