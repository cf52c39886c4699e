package chunk

import (
	"fmt"
	"strings"
)

// Strategy selects how a document is split into chunks.
type Strategy string

const (
	// StrategyFixed splits purely by size, preserving paragraph boundaries
	// where possible.
	StrategyFixed Strategy = "fixed"
	// StrategySemantic splits by markdown-style headings first, then applies
	// size-bounded splitting within each section.
	StrategySemantic Strategy = "semantic"
	// StrategyHybrid behaves like StrategySemantic but falls back to
	// StrategyFixed when heading-splitting yields a single section.
	StrategyHybrid Strategy = "hybrid"
)

const (
	// DefaultMaxChunkSize is the default upper bound on chunk length in characters.
	DefaultMaxChunkSize = 1000
	// DefaultOverlap is the default number of tail characters carried into
	// the next chunk.
	DefaultOverlap = 200
)

// Splitter splits raw document text into overlapping, size-bounded segments.
type Splitter struct {
	maxChunkSize int
	overlap      int
	strategy     Strategy
}

// NewSplitter creates a splitter. maxChunkSize must be positive and overlap
// must be non-negative and smaller than maxChunkSize.
func NewSplitter(maxChunkSize, overlap int, strategy Strategy) (*Splitter, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("maxChunkSize must be greater than 0, got %d", maxChunkSize)
	}
	if overlap < 0 || overlap >= maxChunkSize {
		return nil, fmt.Errorf("overlap must be in [0, maxChunkSize), got %d", overlap)
	}
	switch strategy {
	case StrategyFixed, StrategySemantic, StrategyHybrid:
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", strategy)
	}

	return &Splitter{
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
		strategy:     strategy,
	}, nil
}

// Split splits text according to the configured strategy. Empty and
// non-informative segments are filtered out.
func (s *Splitter) Split(text string) []string {
	text = normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var segments []string
	switch s.strategy {
	case StrategySemantic:
		segments = s.splitBySections(text)
	case StrategyHybrid:
		sections := splitSections(text)
		if len(sections) <= 1 {
			segments = s.splitBySize(text)
		} else {
			segments = s.splitBySections(text)
		}
	default:
		segments = s.splitBySize(text)
	}

	informative := segments[:0]
	for _, seg := range segments {
		if IsInformative(seg) {
			informative = append(informative, seg)
		}
	}
	return informative
}

// splitBySize splits text into segments no longer than maxChunkSize,
// keeping whole paragraphs together where possible. Consecutive chunks
// share up to s.overlap characters of trailing context.
func (s *Splitter) splitBySize(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A single oversized paragraph gets hard-split at word boundaries.
		if len(para) > s.maxChunkSize {
			flush()
			pieces := s.hardSplit(para)
			chunks = append(chunks, pieces...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > s.maxChunkSize {
			prev := current.String()
			flush()
			// Seed the next chunk with trailing context, unless that would
			// push the paragraph over the bound again.
			tail := s.overlapTail(prev)
			if tail != "" && len(tail)+len(para)+2 <= s.maxChunkSize {
				current.WriteString(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitBySections splits by markdown headings and size-bounds each section,
// carrying the heading as a prefix on every chunk of that section.
func (s *Splitter) splitBySections(text string) []string {
	sections := splitSections(text)

	var chunks []string
	for _, sec := range sections {
		body := strings.TrimSpace(sec.body)
		if body == "" && sec.heading == "" {
			continue
		}

		prefix := ""
		budget := s.maxChunkSize
		if sec.heading != "" {
			prefix = sec.heading + "\n\n"
			budget -= len(prefix)
			if budget <= s.overlap {
				// Heading leaves no room for content; fall back to the raw budget.
				prefix = ""
				budget = s.maxChunkSize
				body = strings.TrimSpace(sec.heading + "\n\n" + body)
			}
		}

		if body == "" {
			chunks = append(chunks, strings.TrimSpace(prefix))
			continue
		}

		inner := Splitter{maxChunkSize: budget, overlap: s.overlap, strategy: StrategyFixed}
		for _, piece := range inner.splitBySize(body) {
			chunks = append(chunks, prefix+piece)
		}
	}
	return chunks
}

// hardSplit cuts an oversized paragraph into maxChunkSize pieces at word
// boundaries, with overlap carried between consecutive pieces.
func (s *Splitter) hardSplit(text string) []string {
	var pieces []string
	step := s.maxChunkSize - s.overlap

	for start := 0; start < len(text); {
		end := start + s.maxChunkSize
		if end >= len(text) {
			pieces = append(pieces, strings.TrimSpace(text[start:]))
			break
		}

		// Back up to the last space so words stay whole.
		cut := end
		for cut > start && text[cut] != ' ' && text[cut] != '\n' {
			cut--
		}
		if cut == start {
			cut = end // no boundary found, cut mid-word
		}

		pieces = append(pieces, strings.TrimSpace(text[start:cut]))

		next := cut - s.overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return pieces
}

// overlapTail returns up to s.overlap trailing characters of prev, advanced
// to the next word boundary.
func (s *Splitter) overlapTail(prev string) string {
	if s.overlap == 0 || prev == "" {
		return ""
	}
	if len(prev) <= s.overlap {
		return prev
	}

	tail := prev[len(prev)-s.overlap:]
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

type section struct {
	heading string
	body    string
}

// splitSections splits text at markdown-style heading lines (# through ######).
// Content before the first heading becomes a heading-less section.
func splitSections(text string) []section {
	lines := strings.Split(text, "\n")

	var sections []section
	var current section
	var body strings.Builder
	open := false

	flush := func() {
		if open || body.Len() > 0 {
			current.body = body.String()
			sections = append(sections, current)
			body.Reset()
		}
	}

	for _, line := range lines {
		if isHeading(line) {
			flush()
			current = section{heading: strings.TrimSpace(line)}
			open = true
			continue
		}
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(line)
		if !open && strings.TrimSpace(line) != "" {
			open = true
		}
	}
	flush()

	return sections
}

// isHeading reports whether a line is a markdown heading marker.
func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	return level >= 1 && level <= 6 && level < len(trimmed) && trimmed[level] == ' '
}

// normalize converts CRLF line endings so paragraph splitting behaves.
func normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
