// Package parser separates model reasoning from the answer in streamed
// completions.
//
// Reasoning models served through OpenAI-compatible endpoints wrap their
// reasoning in <thinking> (or <think>) tags inline with the answer. The
// browser driver expects a bare JSON answer, so the reasoning has to be
// split off before decoding.
package parser

import (
	"strings"

	"github.com/entrhq/browserbase-mcp/pkg/llm"
)

var (
	openTags  = map[string]bool{"<thinking>": true, "<think>": true}
	closeTags = map[string]bool{"</thinking>": true, "</think>": true}
)

// maxTagLen bounds how long a '<' run is buffered before it is treated as
// plain text. It is the length of the longest recognised tag.
const maxTagLen = len("</thinking>")

// ThinkingParser splits streamed content into thinking and message chunks.
// Tags may span chunk boundaries; a potential tag is held back until it is
// either completed or ruled out.
type ThinkingParser struct {
	text       strings.Builder
	tag        strings.Builder // pending text starting at '<'
	inThinking bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes one content delta. Either result may be nil; when both text
// kinds occur in one delta each is merged into a single chunk.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	var out chunkPair

	for _, ch := range content {
		switch {
		case ch == '<':
			// A second '<' means the pending run was not a tag.
			p.releaseTag(&out)
			p.flushText(&out)
			p.tag.WriteRune(ch)

		case p.tag.Len() > 0:
			p.tag.WriteRune(ch)
			if ch == '>' {
				p.closeTag(&out)
			} else if p.tag.Len() > maxTagLen {
				p.releaseTag(&out)
			}

		default:
			p.text.WriteRune(ch)
		}
	}

	p.flushText(&out)
	return out.thinking, out.message
}

// closeTag resolves a completed '<...>' run.
func (p *ThinkingParser) closeTag(out *chunkPair) {
	tag := p.tag.String()
	switch {
	case openTags[tag]:
		p.inThinking = true
	case closeTags[tag]:
		p.inThinking = false
	default:
		out.add(p.chunk(tag))
	}
	p.tag.Reset()
}

// releaseTag emits a pending run as plain text.
func (p *ThinkingParser) releaseTag(out *chunkPair) {
	if p.tag.Len() == 0 {
		return
	}
	out.add(p.chunk(p.tag.String()))
	p.tag.Reset()
}

func (p *ThinkingParser) flushText(out *chunkPair) {
	if p.text.Len() == 0 {
		return
	}
	out.add(p.chunk(p.text.String()))
	p.text.Reset()
}

func (p *ThinkingParser) chunk(text string) *llm.StreamChunk {
	t := llm.ContentTypeMessage
	if p.inThinking {
		t = llm.ContentTypeThinking
	}
	return &llm.StreamChunk{Content: text, Type: t}
}

// IsInThinking returns true if currently parsing thinking content.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Flush returns any held-back content. Call it once the stream ends.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	var out chunkPair
	p.releaseTag(&out)
	p.flushText(&out)
	return out.thinking, out.message
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.text.Reset()
	p.tag.Reset()
	p.inThinking = false
}

// chunkPair accumulates the output of one Parse or Flush call.
type chunkPair struct {
	thinking, message *llm.StreamChunk
}

func (c *chunkPair) add(chunk *llm.StreamChunk) {
	dst := &c.message
	if chunk.Type == llm.ContentTypeThinking {
		dst = &c.thinking
	}
	if *dst == nil {
		*dst = chunk
		return
	}
	(*dst).Content += chunk.Content
}
