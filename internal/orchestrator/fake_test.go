package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/prompts"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/provider"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// validMarkdown passes validation for every text kind.
var validMarkdown = `## Lesson Section

**Core idea**: this definition explains the principle behind the concept.
For example, a loop repeats a block of code until a condition is met.

- Loops reduce repetition
- Loops need an exit condition

1. What does a loop repeat?
2. How does a loop stop?
3. Why would a loop never end?
4. When is recursion clearer than a loop?

` + strings.Repeat("Loops let programs process collections of data one item at a time. ", 12)

// validJSON satisfies every structured kind's shape at once.
const validJSON = "```json\n" + `{
  "objectives": ["Explain what a loop is", "Write a for loop"],
  "sections": [{"title": "Basics", "summary": "What loops are"}],
  "terms": [{"term": "iteration", "definition": "one pass through a loop"}],
  "questions": [{"question": "What ends a loop?", "options": ["a condition", "nothing"], "answer": "a condition", "explanation": "loops stop when the condition is false"}]
}` + "\n```"

// fakeGenerator answers prompts with valid content unless fn overrides it.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	active  int
	peak    int
	delay   time.Duration

	// fn may answer a prompt; handled=false falls through to the default.
	fn func(call int, prompt string) (text string, handled bool, err error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req provider.Request) (provider.Completion, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, req.Prompt)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return provider.Completion{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return provider.Completion{}, err
	}

	if f.fn != nil {
		if text, handled, err := f.fn(call, req.Prompt); handled {
			if err != nil {
				return provider.Completion{}, err
			}
			return provider.Completion{Text: text, Provider: "fake"}, nil
		}
	}
	if strings.Contains(req.Prompt, prompts.JSONInstruction) {
		return provider.Completion{Text: validJSON, Provider: "fake"}, nil
	}
	return provider.Completion{Text: validMarkdown, Provider: "fake"}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGenerator) countPrompts(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

func (f *fakeGenerator) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// countingSink counts session updates.
type countingSink struct {
	mu      sync.Mutex
	updates int
}

func (s *countingSink) Update(_ *models.Session) {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
}

// recordingGenerator reports request parameters before delegating.
type recordingGenerator struct {
	*fakeGenerator
	seen func(temperature float64, maxTokens int)
}

func (r *recordingGenerator) Generate(ctx context.Context, req provider.Request) (provider.Completion, error) {
	r.seen(req.Temperature, req.MaxTokens)
	return r.fakeGenerator.Generate(ctx, req)
}
