// Package article assembles a streamed article into a title and a body.
package article

import (
	"errors"
	"io"
	"strings"
)

// Article is the reading material for one round.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ErrorArticle is shown when generation fails.
var ErrorArticle = Article{
	Title:   "Error",
	Content: "There was an error generating the article. Please try again.",
}

// NarrationText is what the reading view narrates: the title, a full stop,
// then the body.
func (a Article) NarrationText() string {
	return a.Title + ". " + a.Content + " "
}

// Stream yields article text in chunks. Recv returns io.EOF after the last
// chunk.
type Stream interface {
	Recv() (string, error)
}

// Assembler accumulates streamed chunks. The first line becomes the title
// exactly once; everything after it is the body, which only ever grows.
type Assembler struct {
	buf        strings.Builder
	title      string
	titleDone  bool
	bodyOffset int
}

// Push appends a chunk and returns the article as assembled so far.
func (a *Assembler) Push(chunk string) Article {
	a.buf.WriteString(chunk)
	full := a.buf.String()

	if !a.titleDone {
		nl := strings.IndexByte(full, '\n')
		if nl < 0 {
			return Article{}
		}
		a.title = strings.TrimSpace(full[:nl])
		a.bodyOffset = nl + 1
		a.titleDone = true
	}
	return Article{Title: a.title, Content: full[a.bodyOffset:]}
}

// Finish returns the final article. Without any newline the whole trimmed
// text is the title and the body is empty.
func (a *Assembler) Finish() Article {
	full := a.buf.String()
	if !a.titleDone {
		return Article{Title: strings.TrimSpace(full)}
	}
	return Article{Title: a.title, Content: full[a.bodyOffset:]}
}

// Assemble drains s, calling publish after every chunk once a title is known
// and once more with the final article. The partial article is returned with
// any stream error.
func Assemble(s Stream, publish func(Article)) (Article, error) {
	var a Assembler
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return a.Finish(), err
		}
		if partial := a.Push(chunk); a.titleDone && publish != nil {
			publish(partial)
		}
	}
	final := a.Finish()
	if publish != nil {
		publish(final)
	}
	return final, nil
}

// StringStream replays fixed chunks.
type StringStream struct {
	Chunks []string
	Err    error
	next   int
}

func (s *StringStream) Recv() (string, error) {
	if s.next >= len(s.Chunks) {
		if s.Err != nil {
			return "", s.Err
		}
		return "", io.EOF
	}
	s.next++
	return s.Chunks[s.next-1], nil
}
