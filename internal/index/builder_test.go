package index

import (
	"strings"
	"testing"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/scope"
)

func testScope(t *testing.T) scope.Key {
	t.Helper()
	key, err := scope.Normalize("https://brand-one.example.com")
	if err != nil {
		t.Fatalf("normalize scope: %v", err)
	}
	return key
}

func TestBuildSingleChunk(t *testing.T) {
	b := NewBuilder(testScope(t))
	item := content.Item{
		ID:      42,
		Type:    "post",
		Status:  content.StatusPublish,
		Title:   "Short post",
		Content: "<p>Hello <b>world</b></p>",
		Terms:   []content.Term{{Taxonomy: "category", Name: "News", Slug: "news"}},
	}

	records, err := b.Build(item)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ObjectID != "https://brand-one.example.com_42_0" {
		t.Errorf("unexpected object ID %q", rec.ObjectID)
	}
	if rec.DocumentID != "https://brand-one.example.com_42" {
		t.Errorf("unexpected document ID %q", rec.DocumentID)
	}
	if rec.Content != "Hello world" {
		t.Errorf("content not cleaned: %q", rec.Content)
	}
	if rec.TotalChunks != 1 || rec.ChunkIndex != 0 {
		t.Errorf("chunk metadata = %d/%d", rec.ChunkIndex, rec.TotalChunks)
	}
	if got := rec.Terms["category"]; len(got) != 1 || got[0] != "News" {
		t.Errorf("terms not mapped: %v", rec.Terms)
	}
}

func TestBuildChunksLongContent(t *testing.T) {
	b := NewBuilder(testScope(t))
	item := content.Item{
		ID:      7,
		Type:    "post",
		Title:   "Long post",
		Content: strings.Repeat("lorem ipsum dolor sit amet ", 1000),
	}

	records, err := b.Build(item)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(records))
	}
	for i, rec := range records {
		if size := rec.EncodedSize(); size > b.SizeLimit {
			t.Errorf("chunk %d encoded size %d exceeds limit %d", i, size, b.SizeLimit)
		}
		if rec.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, rec.ChunkIndex)
		}
		if rec.TotalChunks != len(records) {
			t.Errorf("chunk %d reports %d total chunks, want %d", i, rec.TotalChunks, len(records))
		}
		if i > 0 && !strings.HasPrefix(rec.Content, ContinuationMarker) {
			t.Errorf("chunk %d missing continuation marker", i)
		}
		if i == 0 && strings.HasPrefix(rec.Content, ContinuationMarker) {
			t.Errorf("first chunk must not carry a marker")
		}
	}

	// Concatenating the trimmed chunks must reproduce the cleaned content.
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		parts = append(parts, strings.TrimPrefix(rec.Content, ContinuationMarker))
	}
	if joined := strings.Join(parts, ""); joined != Clean(item.Content) {
		t.Errorf("chunk round-trip lost content: %d vs %d bytes", len(joined), len(Clean(item.Content)))
	}
}

func TestBuildChunksStayUnderLimitWithEscaping(t *testing.T) {
	// Quotes and ampersands survive cleaning and inflate the encoded form,
	// so the size ceiling must hold in encoded bytes, not raw bytes.
	b := NewBuilder(testScope(t))
	b.SizeLimit = 2000
	item := content.Item{
		ID:      11,
		Type:    "post",
		Title:   "Quoted",
		Content: strings.Repeat(`she said "hello" & he said "goodbye" `, 400),
	}

	records, err := b.Build(item)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(records))
	}
	for i, rec := range records {
		if size := rec.EncodedSize(); size > b.SizeLimit {
			t.Errorf("chunk %d encoded size %d exceeds limit %d", i, size, b.SizeLimit)
		}
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		parts = append(parts, strings.TrimPrefix(rec.Content, ContinuationMarker))
	}
	if joined := strings.Join(parts, ""); joined != Clean(item.Content) {
		t.Errorf("chunk round-trip lost content: %d vs %d bytes", len(joined), len(Clean(item.Content)))
	}
}

func TestSplitChunksHardCutRejoinsWithoutGaps(t *testing.T) {
	// A token longer than the budget forces cuts mid-word; concatenating the
	// trimmed chunks must restore the token unchanged.
	text := strings.Repeat("a", 350)
	chunks := splitChunks(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(strings.TrimPrefix(c, ContinuationMarker))
	}
	if rebuilt.String() != text {
		t.Errorf("hard-cut round-trip changed the text: %d vs %d bytes", rebuilt.Len(), len(text))
	}
}

func TestBuildEmptyContent(t *testing.T) {
	b := NewBuilder(testScope(t))
	records, err := b.Build(content.Item{ID: 9, Type: "attachment", Title: "A photo"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record for empty content, got %d", len(records))
	}
	if records[0].Content != "" {
		t.Errorf("expected empty content, got %q", records[0].Content)
	}
}

func TestBuildBaseOverBudget(t *testing.T) {
	b := NewBuilder(testScope(t))
	b.SizeLimit = 200
	item := content.Item{
		ID:      3,
		Type:    "post",
		Title:   strings.Repeat("very long title ", 50),
		Content: "body",
	}
	if _, err := b.Build(item); err == nil {
		t.Fatal("expected over-budget error")
	}
}

func TestSplitChunksHardCutOnRuneBoundary(t *testing.T) {
	// Multi-byte runes with no spaces force hard cuts; none may land inside
	// a rune.
	text := strings.Repeat("日本語テキスト", 40)
	chunks := splitChunks(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rebuilt strings.Builder
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d bytes", i, len(c))
		}
		rebuilt.WriteString(strings.TrimPrefix(c, ContinuationMarker))
	}
	if rebuilt.String() != text {
		t.Error("hard cuts corrupted the text")
	}
}
