package embed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(64)
	a, _ := h.Embed(context.Background(), []string{"func handleLogin(user string)"})
	b, _ := h.Embed(context.Background(), []string{"func handleLogin(user string)"})

	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatal("identical input produced different vectors")
		}
	}
}

func TestHashEmbedder_FixedDimension(t *testing.T) {
	h := NewHashEmbedder(128)
	vecs, err := h.Embed(context.Background(), []string{"one", "two words here", ""})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, v := range vecs {
		if len(v) != 128 {
			t.Errorf("vector %d has dimension %d, want 128", i, len(v))
		}
	}
}

func TestHashEmbedder_SimilarTextsCloser(t *testing.T) {
	h := NewHashEmbedder(256)
	vecs, _ := h.Embed(context.Background(), []string{
		"render the user dashboard with charts",
		"render the user dashboard with graphs",
		"parse the CSV import file",
	})
	near := Cosine(vecs[0], vecs[1])
	far := Cosine(vecs[0], vecs[2])
	if near <= far {
		t.Errorf("similar texts should score higher: near=%f far=%f", near, far)
	}
}

func TestResilient_FallsBackOnError(t *testing.T) {
	remote := EmbedderFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	})
	r := NewResilient(remote, 32)

	vecs, err := r.Embed(context.Background(), []string{"some text"})
	if err != nil {
		t.Fatalf("Embed surfaced remote error: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 32 {
		t.Fatalf("fallback vector shape wrong: %d x %d", len(vecs), len(vecs[0]))
	}
}

func TestResilient_FallsBackOnTimeout(t *testing.T) {
	remote := EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := NewResilient(remote, 16, WithTimeout(20*time.Millisecond))

	start := time.Now()
	vecs, err := r.Embed(context.Background(), []string{"slow"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs[0]) != 16 {
		t.Errorf("dimension = %d, want 16", len(vecs[0]))
	}
	if time.Since(start) > time.Second {
		t.Error("timeout did not bound the remote call")
	}
}

func TestResilient_FallsBackOnDimensionMismatch(t *testing.T) {
	remote := EmbedderFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = make([]float32, 7) // wrong dimension
		}
		return out, nil
	})
	r := NewResilient(remote, 32)

	vecs, _ := r.Embed(context.Background(), []string{"a", "b"})
	for _, v := range vecs {
		if len(v) != 32 {
			t.Errorf("dimension = %d, want 32", len(v))
		}
	}
}

func TestResilient_PreservesBatchOrder(t *testing.T) {
	remote := EmbedderFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			v := make([]float32, 4)
			v[0] = float32(len(text))
			out[i] = v
		}
		return out, nil
	})
	r := NewResilient(remote, 4)

	texts := []string{"a", "bb", "ccc"}
	vecs, err := r.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, text := range texts {
		if int(vecs[i][0]) != len(text) {
			t.Errorf("vector %d out of order", i)
		}
	}
}

func TestResilient_NilRemoteUsesFallback(t *testing.T) {
	r := NewResilient(nil, 8)
	vecs, err := r.Embed(context.Background(), []string{"x"})
	if err != nil || len(vecs) != 1 || len(vecs[0]) != 8 {
		t.Fatalf("nil remote fallback broken: %v %v", vecs, err)
	}
}

func TestCosine_Bounds(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}
	c := []float32{0, 1}
	if got := Cosine(a, b); got < 0.999 {
		t.Errorf("identical vectors cosine = %f, want ~1", got)
	}
	if got := Cosine(a, c); got != 0 {
		t.Errorf("orthogonal vectors cosine = %f, want 0", got)
	}
	if got := Cosine(a, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths cosine = %f, want 0", got)
	}
}
