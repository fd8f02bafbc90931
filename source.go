package csvmodel

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// Rows is a forward-only sequence of delimited rows. NextRow returns io.EOF
// after the last row.
type Rows interface {
	NextRow() ([]string, error)
	Line() int // file line of the row last returned; 0 before the first row
	Close() error
}

// Source produces a fresh Rows sequence on every Open call.
type Source interface {
	Name() string
	Open() (Rows, error)
}

// FileSource reads a delimited text file from disk.
type FileSource struct {
	Path      string
	Delimiter string
}

// NewFileSource returns a Source for path split on delim.
func NewFileSource(path, delim string) *FileSource {
	return &FileSource{Path: path, Delimiter: delim}
}

func (s *FileSource) Name() string { return s.Path }

// Open opens the file. A missing or unreadable file fails here, before any
// row is produced.
func (s *FileSource) Open() (Rows, error) {
	if s.Delimiter == "" {
		return nil, Errorf(ErrConfiguration, "open", s.Path, "empty delimiter")
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Op: "open", Source: s.Path, Err: err}
	}
	return newLineRows(f, f, s.Path, s.Delimiter), nil
}

// ReaderSource adapts an io.Reader. It can be opened once.
type ReaderSource struct {
	name   string
	delim  string
	r      io.Reader
	opened bool
}

// NewReaderSource wraps r; name is used in report messages.
func NewReaderSource(name string, r io.Reader, delim string) *ReaderSource {
	return &ReaderSource{name: name, delim: delim, r: r}
}

func (s *ReaderSource) Name() string { return s.name }

func (s *ReaderSource) Open() (Rows, error) {
	if s.delim == "" {
		return nil, Errorf(ErrConfiguration, "open", s.name, "empty delimiter")
	}
	if s.opened {
		return nil, Errorf(ErrIO, "open", s.name, "reader already consumed")
	}
	s.opened = true
	var c io.Closer
	if rc, ok := s.r.(io.Closer); ok {
		c = rc
	}
	return newLineRows(s.r, c, s.name, s.delim), nil
}

// SplitRow trims surrounding whitespace from line and splits it on delim.
// A blank line yields a single empty field.
func SplitRow(line, delim string) []string {
	return strings.Split(strings.TrimSpace(line), delim)
}

type lineRows struct {
	br    *bufio.Reader
	c     io.Closer
	name  string
	delim string
	line  int
	done  bool
}

func newLineRows(r io.Reader, c io.Closer, name, delim string) *lineRows {
	return &lineRows{br: bufio.NewReader(r), c: c, name: name, delim: delim}
}

func (l *lineRows) NextRow() ([]string, error) {
	if l.done {
		return nil, io.EOF
	}
	text, err := l.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			l.done = true
			return nil, &Error{Kind: ErrIO, Op: "read", Source: l.name, Err: err}
		}
		l.done = true
		if text == "" {
			return nil, io.EOF
		}
	}
	l.line++
	return SplitRow(text, l.delim), nil
}

func (l *lineRows) Line() int { return l.line }

func (l *lineRows) Close() error {
	l.done = true
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
