package stagehand

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultSnapshotTokens bounds the snapshot sent with each inference call.
const DefaultSnapshotTokens = 24000

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// approxCounter assumes four bytes per token.
type approxCounter struct{}

func (approxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

var (
	counterOnce   sync.Once
	sharedCounter TokenCounter
)

// NewTokenCounter returns a cl100k_base counter. The encoding is fetched on
// first use; when it is unavailable a byte-length estimate is used instead.
func NewTokenCounter() TokenCounter {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			sharedCounter = approxCounter{}
			return
		}
		sharedCounter = tiktokenCounter{enc: enc}
	})
	return sharedCounter
}

// fitLines keeps leading lines while their total stays within maxTokens.
// It reports whether any line was dropped.
func fitLines(lines []string, counter TokenCounter, maxTokens int) ([]string, bool) {
	if maxTokens <= 0 {
		return lines, false
	}
	used := 0
	for i, line := range lines {
		used += counter.Count(line) + 1
		if used > maxTokens {
			return lines[:i], true
		}
	}
	return lines, false
}
