package observability

import (
	"context"
	"testing"
	"time"
)

type recordingBuildHooks struct {
	NoopBuildHooks
	builds int
	passes []string
}

func (h *recordingBuildHooks) OnBuildStart(ctx context.Context, nodes, edges int) {
	h.builds++
}

func (h *recordingBuildHooks) OnSolvePassStart(ctx context.Context, pass string, vertices int) {
	h.passes = append(h.passes, pass)
}

type recordingCacheHooks struct {
	NoopCacheHooks
	hits, misses int
}

func (h *recordingCacheHooks) OnCacheHit(ctx context.Context, keyType string)  { h.hits++ }
func (h *recordingCacheHooks) OnCacheMiss(ctx context.Context, keyType string) { h.misses++ }

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	t.Cleanup(Reset)

	bh := &recordingBuildHooks{}
	SetBuildHooks(bh)

	ctx := context.Background()
	Build().OnBuildStart(ctx, 10, 4)
	Build().OnSolvePassStart(ctx, "loose", 12)
	Build().OnSolvePassStart(ctx, "strict", 10)

	if bh.builds != 1 {
		t.Errorf("builds = %d, want 1", bh.builds)
	}
	if len(bh.passes) != 2 || bh.passes[0] != "loose" || bh.passes[1] != "strict" {
		t.Errorf("passes = %v", bh.passes)
	}
}

func TestCacheHooks(t *testing.T) {
	t.Cleanup(Reset)

	ch := &recordingCacheHooks{}
	SetCacheHooks(ch)

	ctx := context.Background()
	Cache().OnCacheMiss(ctx, "layout")
	Cache().OnCacheSet(ctx, "layout", 128)
	Cache().OnCacheHit(ctx, "layout")

	if ch.hits != 1 || ch.misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", ch.hits, ch.misses)
	}
}

func TestDefaultsAreNoops(t *testing.T) {
	Reset()
	// Must not panic.
	Build().OnBuildComplete(context.Background(), 0, time.Millisecond, nil)
	Server().OnResponse(context.Background(), "GET", "/healthz", 200, time.Millisecond)
}

func TestSetNilKeepsExisting(t *testing.T) {
	t.Cleanup(Reset)

	bh := &recordingBuildHooks{}
	SetBuildHooks(bh)
	SetBuildHooks(nil)

	Build().OnBuildStart(context.Background(), 1, 0)
	if bh.builds != 1 {
		t.Error("nil registration should not replace existing hooks")
	}
}
