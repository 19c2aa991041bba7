package provider

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// fakeProvider returns scripted results per model.
type fakeProvider struct {
	name   string
	models []string

	mu    sync.Mutex
	calls []string
	// script maps model to the errors returned before succeeding; nil entries mean success.
	script map[string][]error
	// fail makes every call fail with this error.
	fail error
}

func newFake(name string, models ...string) *fakeProvider {
	if len(models) == 0 {
		models = []string{name + "-model"}
	}
	return &fakeProvider{name: name, models: models, script: make(map[string][]error)}
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Models() []string { return f.models }

func (f *fakeProvider) Complete(ctx context.Context, model string, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)

	if f.fail != nil {
		return Response{}, f.fail
	}
	if queue := f.script[model]; len(queue) > 0 {
		err := queue[0]
		f.script[model] = queue[1:]
		if err != nil {
			return Response{}, err
		}
	}
	return Response{Text: f.name + ":" + model + ":" + req.Prompt, InputTokens: 10, OutputTokens: 5}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProvider) modelsCalled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func rateLimited(name string) error {
	return &ProviderError{Provider: name, StatusCode: http.StatusTooManyRequests, Message: "slow down"}
}

func serverError(name string) error {
	return &ProviderError{Provider: name, StatusCode: http.StatusInternalServerError, Message: "boom"}
}

// recordingSleeper records requested delays without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
