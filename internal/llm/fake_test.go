// internal/llm/fake_test.go
package llm

import "context"

// fakeCompleter records the last prompts and replies with a canned answer.
type fakeCompleter struct {
	reply        string
	err          error
	systemPrompt string
	userPrompt   string
	calls        int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	return f.reply, f.err
}
