package file

import (
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/offsets"
)

// An Overlay is the editor's view of an open document. Overlays are
// immutable; edits produce a new Overlay.
type Overlay struct {
	uri        lsp.DocumentURI
	version    int32
	languageID lsp.LanguageKind
	hash       Hash
	index      *offsets.LineIndex
}

func NewOverlay(uri lsp.DocumentURI, languageID lsp.LanguageKind, version int32, text string) *Overlay {
	return &Overlay{
		uri:        uri,
		version:    version,
		languageID: languageID,
		hash:       HashOf([]byte(text)),
		index:      offsets.NewLineIndex(text),
	}
}

func (o *Overlay) URI() lsp.DocumentURI            { return o.uri }
func (o *Overlay) Version() int32                  { return o.version }
func (o *Overlay) LanguageID() lsp.LanguageKind    { return o.languageID }
func (o *Overlay) Kind() Kind                      { return KindForLang(o.languageID, o.uri) }
func (o *Overlay) Hash() Hash                      { return o.hash }
func (o *Overlay) Text() string                    { return o.index.Text() }
func (o *Overlay) PositionAt(off int) lsp.Position { return o.index.PositionAt(off) }
func (o *Overlay) LineRange(line int) lsp.Range    { return o.index.LineRange(line) }
func (o *Overlay) FullRange() lsp.Range            { return o.index.FullRange() }

// Apply returns the overlay that results from applying changes in order.
// A change without a range replaces the whole document.
func (o *Overlay) Apply(version int32, changes []lsp.TextDocumentContentChangeEvent) *Overlay {
	index := o.index
	text := index.Text()
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
		} else {
			start := index.ByteOffset(change.Range.Start)
			end := max(start, index.ByteOffset(change.Range.End))
			text = text[:start] + change.Text + text[end:]
		}
		index = offsets.NewLineIndex(text)
	}
	return &Overlay{
		uri:        o.uri,
		version:    version,
		languageID: o.languageID,
		hash:       HashOf([]byte(text)),
		index:      index,
	}
}
