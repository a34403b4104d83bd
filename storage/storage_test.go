package storage

import (
	"context"
	"testing"
)

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, defaultLimit},
		{0, defaultLimit},
		{5, 5},
		{maxLimit, maxLimit},
		{maxLimit + 1, maxLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWinner(t *testing.T) {
	rec := MatchRecord{
		Players:     [2]PlayerRecord{{Name: "Alice"}, {Name: "Bob"}},
		WinnerIndex: 1,
	}
	w, ok := rec.Winner()
	if !ok || w.Name != "Bob" {
		t.Errorf("expected Bob to win, got %+v %v", w, ok)
	}
	rec.WinnerIndex = -1
	if _, ok := rec.Winner(); ok {
		t.Error("canceled match should have no winner")
	}
}

func TestWinnerColumn(t *testing.T) {
	if winnerColumn(-1) != nil || winnerColumn(2) != nil {
		t.Error("out-of-range winner should be NULL")
	}
	if v := winnerColumn(1); v == nil || *v != 1 {
		t.Errorf("expected 1, got %v", v)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if err := s.RecordResult(ctx, MatchRecord{MatchID: "m"}); err != nil {
		t.Errorf("RecordResult on nil store: %v", err)
	}
	if recs, err := s.RecentResults(ctx, 10); err != nil || recs != nil {
		t.Errorf("RecentResults on nil store: %v %v", recs, err)
	}
	if recs, err := s.ResultsByUserID(ctx, "u", 10); err != nil || recs != nil {
		t.Errorf("ResultsByUserID on nil store: %v %v", recs, err)
	}
	s.Close()
}

func TestNewStoreWithoutURL(t *testing.T) {
	s, err := NewStore(context.Background(), "")
	if s != nil || err != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", s, err)
	}
}
