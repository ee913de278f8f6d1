package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/scope"
)

// DefaultRecordSizeLimit is the hard ceiling on a single record's encoded
// size in bytes. The backend rejects records above roughly 10 KB; staying
// slightly under leaves headroom for envelope overhead.
const DefaultRecordSizeLimit = 9500

// ContinuationMarker prefixes every chunk after the first so reassembled and
// standalone chunk text both stay legible.
const ContinuationMarker = "…"

// maxChunksPerDocument bounds the chunk index the builder budgets for. The
// content budget is computed against a record carrying this index, so any
// shorter real index can only shrink the encoded size.
const maxChunksPerDocument = 9999999

// minContentBudget is the smallest content budget Build accepts: room for
// the marker plus one worst-case escaped rune (a surrogate pair encodes as
// twelve bytes).
const minContentBudget = len(ContinuationMarker) + 12

// ErrRecordOverBudget reports an item whose base fields alone exceed the
// record size limit. The item is dropped from the batch, never failing it.
var ErrRecordOverBudget = errors.New("record base fields exceed size limit")

// Builder converts one content item into its ordered chunk records.
type Builder struct {
	Scope     scope.Key
	SizeLimit int
}

// NewBuilder returns a Builder for the given scope using the default record
// size limit.
func NewBuilder(key scope.Key) *Builder {
	return &Builder{Scope: key, SizeLimit: DefaultRecordSizeLimit}
}

func (b *Builder) limit() int {
	if b.SizeLimit > 0 {
		return b.SizeLimit
	}
	return DefaultRecordSizeLimit
}

// Build produces the record set for item. Content is cleaned to plain text
// and split into chunks sized so that every record's encoded JSON, with its
// object ID and chunk metadata filled in, stays at or under the limit. An
// item whose cleaned content is empty still emits one empty-content record
// so it stays searchable by title and taxonomy.
func (b *Builder) Build(item content.Item) ([]Record, error) {
	base := b.baseRecord(item)

	// Budget against the widest record this item can produce, not the bare
	// base: the object ID and chunk counters also occupy encoded bytes.
	widest := base
	widest.ObjectID = b.Scope.ObjectID(item.ID, maxChunksPerDocument)
	widest.ChunkIndex = maxChunksPerDocument
	widest.TotalChunks = maxChunksPerDocument
	budget := b.limit() - widest.EncodedSize()
	if budget < minContentBudget {
		return nil, fmt.Errorf("%w: item %d (%q)", ErrRecordOverBudget, item.ID, item.Title)
	}

	chunks := splitChunks(Clean(item.Content), budget)
	if len(chunks) > maxChunksPerDocument {
		return nil, fmt.Errorf("%w: item %d splits into %d chunks", ErrRecordOverBudget, item.ID, len(chunks))
	}
	records := make([]Record, 0, len(chunks))
	for i, chunk := range chunks {
		rec := base
		rec.ObjectID = b.Scope.ObjectID(item.ID, i)
		rec.Content = chunk
		rec.ChunkIndex = i
		rec.TotalChunks = len(chunks)
		records = append(records, rec)
	}
	return records, nil
}

func (b *Builder) baseRecord(item content.Item) Record {
	terms := make(map[string][]string)
	for _, t := range item.Terms {
		terms[t.Taxonomy] = append(terms[t.Taxonomy], t.Name)
	}
	if len(terms) == 0 {
		terms = nil
	}
	return Record{
		DocumentID:   b.Scope.DocumentID(item.ID),
		Site:         b.Scope.String(),
		ContentID:    item.ID,
		Type:         item.Type,
		Title:        item.Title,
		Excerpt:      Clean(item.Excerpt),
		Permalink:    item.Permalink,
		ThumbnailURL: item.ThumbnailURL,
		AuthorName:   item.Author.Name,
		AuthorURL:    item.Author.URL,
		Terms:        terms,
		PublishedAt:  item.PublishedAt.Unix(),
		UpdatedAt:    item.UpdatedAt.Unix(),
	}
}

// EncodedLen returns the bytes s occupies inside a JSON string value,
// excluding the surrounding quotes. Escaping makes this larger than len(s)
// for quotes, backslashes, angle brackets and ampersands.
func EncodedLen(s string) int {
	enc, err := json.Marshal(s)
	if err != nil {
		return len(s)
	}
	return len(enc) - 2
}

// splitChunks cuts text into pieces whose encoded form fits in budget bytes,
// preferring word boundaries. A boundary cut keeps its trailing space inside
// the left chunk so the original text is the plain concatenation of the
// marker-trimmed chunks. Chunks after the first carry the continuation
// marker inside their budget.
func splitChunks(text string, budget int) []string {
	if text == "" || EncodedLen(text) <= budget {
		return []string{text}
	}

	markerCost := EncodedLen(ContinuationMarker)
	var chunks []string
	rest := text
	for len(rest) > 0 {
		avail := budget
		if len(chunks) > 0 {
			avail = budget - markerCost
		}
		if EncodedLen(rest) <= avail {
			chunks = append(chunks, withMarker(rest, len(chunks)))
			break
		}

		cut := fitCut(rest, avail)
		if idx := strings.LastIndexByte(rest[:cut], ' '); idx > 0 {
			cut = idx + 1
		}
		chunks = append(chunks, withMarker(rest[:cut], len(chunks)))
		rest = rest[cut:]
	}
	return chunks
}

// fitCut returns a prefix length of rest, on a rune boundary, whose encoded
// form fits in avail bytes. It starts from the raw byte window and shrinks
// by the escaping overflow until the prefix fits.
func fitCut(rest string, avail int) int {
	cut := len(rest)
	if cut > avail {
		cut = avail
	}
	for cut > 0 && cut < len(rest) && !utf8.RuneStart(rest[cut]) {
		cut--
	}
	for cut > 0 {
		over := EncodedLen(rest[:cut]) - avail
		if over <= 0 {
			return cut
		}
		// One escaped byte expands to at most six, so stepping back a sixth
		// of the overflow always removes encoded bytes without overshooting
		// far past the largest fitting prefix.
		step := over / 6
		if step < 1 {
			step = 1
		}
		cut -= step
		for cut > 0 && !utf8.RuneStart(rest[cut]) {
			cut--
		}
	}
	return cut
}

func withMarker(chunk string, idx int) string {
	if idx == 0 {
		return chunk
	}
	return ContinuationMarker + chunk
}
