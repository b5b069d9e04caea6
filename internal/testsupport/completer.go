package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
)

var chunkIndices = regexp.MustCompile(`ChunkIndices: \[(\d+)-(\d+)\]`)

// ReplyFunc produces a provider reply for one call. call counts from 1.
type ReplyFunc func(ctx context.Context, call int, userPrompt string) (string, error)

// FakeCompleter is an in-memory provider client.
type FakeCompleter struct {
	reply    ReplyFunc
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu      sync.Mutex
	prompts []string
}

// NewFakeCompleter wraps reply. A nil reply answers with TranslateReply.
func NewFakeCompleter(reply ReplyFunc) *FakeCompleter {
	if reply == nil {
		reply = func(_ context.Context, _ int, userPrompt string) (string, error) {
			return TranslateReply(userPrompt), nil
		}
	}
	return &FakeCompleter{reply: reply}
}

// CompleteJSON implements the provider client contract.
func (f *FakeCompleter) CompleteJSON(ctx context.Context, _, userPrompt string) (string, error) {
	call := int(f.calls.Add(1))
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, userPrompt)
	f.mu.Unlock()
	return f.reply(ctx, call, userPrompt)
}

// Calls returns the number of calls made so far.
func (f *FakeCompleter) Calls() int { return int(f.calls.Load()) }

// PeakInFlight returns the highest number of concurrent calls observed.
func (f *FakeCompleter) PeakInFlight() int { return int(f.peak.Load()) }

// Prompts returns the user prompts received, in call order.
func (f *FakeCompleter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// TranslateReply answers a user prompt with one "Dòng N" line per index in
// its ChunkIndices range.
func TranslateReply(userPrompt string) string {
	m := chunkIndices.FindStringSubmatch(userPrompt)
	if m == nil {
		return "[]"
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	lines := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		lines = append(lines, fmt.Sprintf("Dòng %d", i))
	}
	encoded, _ := json.Marshal(lines)
	return string(encoded)
}

// Errorf returns a reply function that always fails.
func Errorf(format string, args ...any) ReplyFunc {
	return func(context.Context, int, string) (string, error) {
		return "", fmt.Errorf(format, args...)
	}
}

// Constant returns a reply function that always answers raw.
func Constant(raw string) ReplyFunc {
	return func(context.Context, int, string) (string, error) {
		return raw, nil
	}
}

// BlockUntilDone returns a reply function that waits for ctx and reports
// its error. Returned calls are counted in cancelled.
func BlockUntilDone(cancelled *atomic.Int64) ReplyFunc {
	return func(ctx context.Context, _ int, _ string) (string, error) {
		<-ctx.Done()
		if cancelled != nil {
			cancelled.Add(1)
		}
		return "", ctx.Err()
	}
}
