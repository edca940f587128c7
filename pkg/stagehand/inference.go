package stagehand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/browserbase-mcp/pkg/llm"
	"github.com/entrhq/browserbase-mcp/pkg/types"
)

const actSystemPrompt = `You are controlling a web browser. You receive a numbered list of elements from the current page and one instruction.
Choose the single element that carries out the instruction and the method to call on it.
Methods: click, fill, type, press, hover, scrollIntoView, selectOption, check, uncheck.
Answer with one JSON object and nothing else:
{"element": <index>, "method": "<method>", "arguments": ["..."], "description": "<what the element is>"}
For fill and type, arguments holds the text to enter. For press, the key name (for example "Enter"). For selectOption, the option value or label.
Copy placeholders such as %username% exactly as written.
If no element can carry out the instruction, answer {"element": -1, "description": "<why not>"}.`

const observeSystemPrompt = `You are inspecting a web page. You receive a numbered list of elements from the current page and an instruction.
Return the elements that match the instruction, most relevant first. With no instruction, return the elements most useful for interacting with the page.
For each element suggest the method a user would call on it (click, fill, type, press, hover, scrollIntoView, selectOption, check, uncheck) and its arguments.
Answer with one JSON object and nothing else:
{"elements": [{"element": <index>, "description": "<what it is>", "method": "<method>", "arguments": []}]}`

const extractSystemPrompt = `You extract information from a web page. You receive the page's elements and text and an instruction.
Answer with JSON only, using only information present on the page. Use null for values that are not on the page.
When a JSON schema is given, the answer must validate against it. Otherwise answer {"extraction": "<the requested information as text>"}.`

// modelSource builds the provider on first use so sessions that never call
// the model do not need a model key.
type modelSource struct {
	build    func() (llm.Provider, error)
	provider llm.Provider
	err      error
	mu       sync.Mutex
	ready    bool
}

func (m *modelSource) get() (llm.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		m.provider, m.err = m.build()
		m.ready = true
	}
	return m.provider, m.err
}

// stringList accepts a JSON array of strings, numbers or booleans.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		var single any
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return err
		}
		raw = []any{single}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	*l = out
	return nil
}

type elementChoice struct {
	Element     *int       `json:"element"`
	Method      string     `json:"method"`
	Arguments   stringList `json:"arguments"`
	Description string     `json:"description"`
}

type observeReply struct {
	Elements []elementChoice `json:"elements"`
}

// renderSnapshot formats the snapshot for a prompt within the token budget.
func renderSnapshot(snap *Snapshot, url string, counter TokenCounter, maxTokens int) string {
	lines := make([]string, 0, len(snap.Elements))
	for _, e := range snap.Elements {
		lines = append(lines, e.Line())
	}
	kept, truncated := fitLines(lines, counter, maxTokens)

	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s (%s)\n", snap.Title, url)
	if snap.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", snap.Description)
	}
	b.WriteString("Elements:\n")
	b.WriteString(strings.Join(kept, "\n"))
	if truncated {
		fmt.Fprintf(&b, "\n(%d more elements not shown)", len(lines)-len(kept))
	}
	return b.String()
}

func complete(ctx context.Context, provider llm.Provider, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reply, err := provider.Complete(ctx, []*types.Message{
		types.NewSystemMessage(system),
		types.NewUserMessage(user),
	})
	if err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}
	return reply.Content, nil
}

// decodeModelJSON parses a model answer, tolerating code fences and prose
// around the JSON value.
func decodeModelJSON(content string, v any) error {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start < 0 || end <= start {
		return errors.New("model answer contains no JSON")
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to decode model answer: %w", err)
	}
	return nil
}

// substituteVariables replaces %name% placeholders with their values.
func substituteVariables(args []string, vars map[string]string) []string {
	if len(vars) == 0 {
		return args
	}
	out := make([]string, len(args))
	for i, a := range args {
		for k, v := range vars {
			a = strings.ReplaceAll(a, "%"+k+"%", v)
		}
		out[i] = a
	}
	return out
}
