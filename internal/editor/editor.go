// Package editor is the authoring surface over the document tree: discrete
// formatting commands, paste/drop interception for images, and asynchronous
// media uploads that insert nodes when they complete.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/document"
	"github.com/mkaye/memorybox/internal/upload"
)

// ErrClosed is returned by every mutating command after Close.
var ErrClosed = errors.New("editor: closed")

// imageURLPattern recognizes pasted text that is already a direct image
// link, which is inserted as-is with no upload round trip.
var imageURLPattern = regexp.MustCompile(`(?i)^https?://\S+\.(?:jpg|jpeg|gif|png|webp|bmp|svg)(?:\?\S*)?$`)

// Uploader stores a pasted or dropped file and returns its public URL.
// *upload.Gateway satisfies it.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*upload.Result, error)
}

// File is one pasted or dropped file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) isImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// Editor wraps one document tree and applies edits to it. All commands are
// safe for concurrent use. Uploads triggered by Paste or Drop run in the
// background and insert their image node when they finish; closing the
// editor cancels them and drops any insertion that has not landed yet.
type Editor struct {
	uploader Uploader
	onChange func(serialized string)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	doc    *document.Node
	cursor int // index of the current top-level block; -1 when the document is empty
	closed bool
}

// New builds an editor over an existing tree, or over the empty document
// when doc is nil. onChange receives the re-serialized document after every
// mutation; it may be nil. It must not call back into the editor.
func New(doc *document.Node, uploader Uploader, onChange func(string), logger *slog.Logger) *Editor {
	if doc == nil {
		doc = document.Empty()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{
		uploader: uploader,
		onChange: onChange,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		doc:      doc,
		cursor:   len(doc.Content) - 1,
	}
}

// Document returns the current tree. Callers must treat it as read-only.
func (e *Editor) Document() *document.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Serialized returns the current tree in its stored form.
func (e *Editor) Serialized() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return document.Serialize(e.doc)
}

// Wait blocks until all in-flight uploads have resolved.
func (e *Editor) Wait() {
	e.wg.Wait()
}

// Close rejects all further commands and cancels in-flight uploads. Their
// insertions are dropped. Close blocks until the upload goroutines exit and
// is safe to call more than once.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

// Closed reports whether Close has been called.
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// mutate runs fn on the tree under the lock, then fires onChange with the
// re-serialized document. A closed editor rejects the mutation outright.
func (e *Editor) mutate(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	serialized, err := document.Serialize(e.doc)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if e.onChange != nil {
		e.onChange(serialized)
	}
	return nil
}

// insertBlockLocked places a block after the cursor and moves the cursor
// onto it. Must be called with the lock held.
func (e *Editor) insertBlockLocked(n *document.Node) {
	e.insertBlockAtLocked(e.cursor+1, n)
}

// insertBlockAtLocked places a block at a clamped top-level position.
func (e *Editor) insertBlockAtLocked(pos int, n *document.Node) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.doc.Content) {
		pos = len(e.doc.Content)
	}
	e.doc.Content = append(e.doc.Content, nil)
	copy(e.doc.Content[pos+1:], e.doc.Content[pos:])
	e.doc.Content[pos] = n
	e.cursor = pos
}

// currentBlockLocked returns the block under the cursor, or nil for an
// empty document.
func (e *Editor) currentBlockLocked() *document.Node {
	if e.cursor < 0 || e.cursor >= len(e.doc.Content) {
		return nil
	}
	return e.doc.Content[e.cursor]
}

// SetCursor moves the cursor to a top-level block index, clamped to the
// document's bounds.
func (e *Editor) SetCursor(pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if max := len(e.doc.Content) - 1; pos > max {
		pos = max
	}
	e.cursor = pos
}

// InsertParagraph inserts a paragraph after the cursor. Empty text yields
// an empty paragraph.
func (e *Editor) InsertParagraph(text string) error {
	return e.mutate(func() error {
		p := &document.Node{Type: document.TypeParagraph}
		if text != "" {
			p.Content = []*document.Node{{Type: document.TypeText, Text: text}}
		}
		e.insertBlockLocked(p)
		return nil
	})
}

// ToggleHeading converts the current block between paragraph and heading.
// A heading already at the requested level reverts to a paragraph; any
// other block becomes a heading of that level. Level must be 1 through 3.
func (e *Editor) ToggleHeading(level int) error {
	if level < 1 || level > 3 {
		return apperror.ValidationFailed("level", "heading level must be between 1 and 3")
	}
	return e.mutate(func() error {
		block := e.currentBlockLocked()
		if block == nil {
			e.insertBlockLocked(&document.Node{Type: document.TypeHeading, Level: level})
			return nil
		}
		if block.Type == document.TypeHeading && block.Level == level {
			block.Type = document.TypeParagraph
			block.Level = 0
			return nil
		}
		block.Type = document.TypeHeading
		block.Level = level
		return nil
	})
}

// ToggleBold toggles the bold mark on the current block's text.
func (e *Editor) ToggleBold() error {
	return e.toggleMark(document.Mark{Type: document.MarkBold})
}

// ToggleItalic toggles the italic mark on the current block's text.
func (e *Editor) ToggleItalic() error {
	return e.toggleMark(document.Mark{Type: document.MarkItalic})
}

// toggleMark adds the mark to every text node in the current block, or
// removes it from all of them when every one already carries it.
func (e *Editor) toggleMark(mark document.Mark) error {
	return e.mutate(func() error {
		block := e.currentBlockLocked()
		if block == nil {
			return apperror.ValidationFailed("selection", "no block selected")
		}
		texts := collectText(block)
		if len(texts) == 0 {
			return nil
		}
		all := true
		for _, t := range texts {
			if !hasMark(t, mark.Type) {
				all = false
				break
			}
		}
		for _, t := range texts {
			if all {
				removeMark(t, mark.Type)
			} else if !hasMark(t, mark.Type) {
				t.Marks = append(t.Marks, mark)
			}
		}
		return nil
	})
}

// SetLink applies a link mark to the current block's text, replacing any
// existing link.
func (e *Editor) SetLink(href string) error {
	if strings.TrimSpace(href) == "" {
		return apperror.ValidationFailed("href", "link URL must not be empty")
	}
	return e.mutate(func() error {
		block := e.currentBlockLocked()
		if block == nil {
			return apperror.ValidationFailed("selection", "no block selected")
		}
		for _, t := range collectText(block) {
			removeMark(t, document.MarkLink)
			t.Marks = append(t.Marks, document.Mark{Type: document.MarkLink, Href: href})
		}
		return nil
	})
}

// UnsetLink removes link marks from the current block's text.
func (e *Editor) UnsetLink() error {
	return e.mutate(func() error {
		block := e.currentBlockLocked()
		if block == nil {
			return apperror.ValidationFailed("selection", "no block selected")
		}
		for _, t := range collectText(block) {
			removeMark(t, document.MarkLink)
		}
		return nil
	})
}

// ToggleBulletList wraps the current block in a bullet list, or unwraps it
// when the current block already is one.
func (e *Editor) ToggleBulletList() error {
	return e.toggleList(document.TypeBulletList)
}

// ToggleOrderedList wraps the current block in an ordered list, or unwraps
// it when the current block already is one.
func (e *Editor) ToggleOrderedList() error {
	return e.toggleList(document.TypeOrderedList)
}

func (e *Editor) toggleList(listType document.NodeType) error {
	return e.mutate(func() error {
		block := e.currentBlockLocked()
		if block == nil {
			return apperror.ValidationFailed("selection", "no block selected")
		}
		if block.Type == listType {
			// Unwrap: splice each item's children back in as top-level
			// blocks where the list stood.
			var unwrapped []*document.Node
			for _, item := range block.Content {
				unwrapped = append(unwrapped, item.Content...)
			}
			if len(unwrapped) == 0 {
				unwrapped = []*document.Node{{Type: document.TypeParagraph}}
			}
			rest := e.doc.Content[e.cursor+1:]
			e.doc.Content = append(e.doc.Content[:e.cursor], append(unwrapped, rest...)...)
			return nil
		}
		e.doc.Content[e.cursor] = &document.Node{
			Type: listType,
			Content: []*document.Node{
				{Type: document.TypeListItem, Content: []*document.Node{block}},
			},
		}
		return nil
	})
}

// InsertImage inserts an image block after the cursor.
func (e *Editor) InsertImage(src, alt string) error {
	if strings.TrimSpace(src) == "" {
		return apperror.ValidationFailed("src", "image URL must not be empty")
	}
	return e.mutate(func() error {
		e.insertBlockLocked(&document.Node{Type: document.TypeImage, Src: src, Alt: alt})
		return nil
	})
}

// InsertYouTube inserts a video embed block after the cursor. The URL is
// stored as given; rendering resolves it to the embed form.
func (e *Editor) InsertYouTube(src string) error {
	if strings.TrimSpace(src) == "" {
		return apperror.ValidationFailed("src", "video URL must not be empty")
	}
	return e.mutate(func() error {
		e.insertBlockLocked(&document.Node{Type: document.TypeYouTube, Src: src})
		return nil
	})
}

// Paste handles clipboard input. An image file starts a background upload
// whose image node lands at the current cursor position when it completes.
// Text that is itself an image URL becomes an image node directly. Any
// other text becomes a paragraph.
func (e *Editor) Paste(text string, file *File) error {
	if file != nil && file.isImage() {
		return e.startUpload(*file, e.cursorPos()+1)
	}
	if imageURLPattern.MatchString(strings.TrimSpace(text)) {
		return e.InsertImage(strings.TrimSpace(text), "")
	}
	if text == "" {
		return nil
	}
	return e.InsertParagraph(text)
}

// Drop handles files dropped at a top-level block position. Each image
// file starts a background upload targeting that position; non-image files
// are ignored.
func (e *Editor) Drop(pos int, files []File) error {
	for _, f := range files {
		if !f.isImage() {
			continue
		}
		if err := e.startUpload(f, pos); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) cursorPos() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// startUpload hands the file to the uploader in the background. The
// insertion position is captured now and clamped when the upload lands; a
// failed or canceled upload inserts nothing and leaves the tree untouched.
func (e *Editor) startUpload(f File, pos int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		res, err := e.uploader.Upload(e.ctx, f.Name, f.ContentType, f.Data)
		if err != nil {
			e.logger.Warn("pasted file upload failed, insertion dropped",
				slog.String("filename", f.Name),
				slog.String("error", err.Error()))
			return
		}

		err = e.mutate(func() error {
			e.insertBlockAtLocked(pos, &document.Node{
				Type: document.TypeImage,
				Src:  res.PublicURL,
				Alt:  f.Name,
			})
			return nil
		})
		if errors.Is(err, ErrClosed) {
			e.logger.Debug("upload finished after close, insertion dropped",
				slog.String("filename", f.Name))
		}
	}()
	return nil
}

// collectText gathers every text node under n, depth first.
func collectText(n *document.Node) []*document.Node {
	var out []*document.Node
	if n.Type == document.TypeText {
		out = append(out, n)
	}
	for _, c := range n.Content {
		out = append(out, collectText(c)...)
	}
	return out
}

func hasMark(n *document.Node, t document.MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

func removeMark(n *document.Node, t document.MarkType) {
	kept := n.Marks[:0]
	for _, m := range n.Marks {
		if m.Type != t {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		n.Marks = nil
		return
	}
	n.Marks = kept
}
