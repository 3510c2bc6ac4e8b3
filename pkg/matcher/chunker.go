package matcher

import "strings"

// ChunkConfig configures how oversized sources are split before matching.
type ChunkConfig struct {
	MaxChunkSize int // maximum chunk size in bytes
	OverlapLines int // lines repeated between consecutive chunks
}

// DefaultChunkConfig returns production defaults: 1 MiB chunks with a
// 10-line overlap so matches spanning a chunk boundary are still found.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 1 << 20,
		OverlapLines: 10,
	}
}

// Chunk is a portion of a source's decoded text with its position in the
// whole text, so match offsets can be adjusted back to source coordinates.
type Chunk struct {
	Content     string
	StartOffset int // byte offset in the whole text where this chunk starts
	Index       int
}

// ChunkContent splits content at line boundaries with overlap. Content at
// or under MaxChunkSize comes back as a single chunk. A single line longer
// than MaxChunkSize (minified bundles routinely are one line) becomes its
// own oversized chunk rather than being split mid-token.
func ChunkContent(content string, cfg ChunkConfig) []Chunk {
	if len(content) <= cfg.MaxChunkSize {
		return []Chunk{{Content: content}}
	}

	type lineSpan struct {
		start, end int // end includes the trailing newline if present
	}
	var lines []lineSpan
	start := 0
	for {
		i := strings.IndexByte(content[start:], '\n')
		if i < 0 {
			lines = append(lines, lineSpan{start, len(content)})
			break
		}
		lines = append(lines, lineSpan{start, start + i + 1})
		start += i + 1
		if start >= len(content) {
			break
		}
	}

	var chunks []Chunk
	chunkStart := 0 // index into lines
	for chunkStart < len(lines) {
		end := chunkStart
		size := 0
		for end < len(lines) {
			lineLen := lines[end].end - lines[end].start
			if size > 0 && size+lineLen > cfg.MaxChunkSize {
				break
			}
			size += lineLen
			end++
		}

		first, last := lines[chunkStart], lines[end-1]
		chunks = append(chunks, Chunk{
			Content:     content[first.start:last.end],
			StartOffset: first.start,
			Index:       len(chunks),
		})

		if end >= len(lines) {
			break
		}
		// Next chunk re-reads the last OverlapLines lines. If the whole
		// chunk was shorter than the overlap, skip the overlap entirely so
		// chunking always makes forward progress.
		next := end - cfg.OverlapLines
		if next <= chunkStart {
			next = end
		}
		chunkStart = next
	}
	return chunks
}

// Adjust converts a chunk-relative span to whole-source coordinates.
func (c Chunk) Adjust(s Span) Span {
	s.Offset += c.StartOffset
	return s
}
