package trace

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := NewRecorder(KindBalance).Trace()
	second := NewRecorder(KindPropagate).Trace()
	for _, tr := range []*Trace{first, second} {
		if err := s.Save(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Load(ctx, first.ID)
	if err != nil || got.Kind != KindBalance {
		t.Errorf("Load() = %+v, %v", got, err)
	}
	if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}

	recent, _ := s.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].ID != second.ID {
		t.Errorf("Recent(1) = %+v", recent)
	}
}
