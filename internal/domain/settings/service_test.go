package settings

import (
	"context"
	"errors"
	"testing"
)

type fakeRepo struct {
	values map[string]string
	err    error
}

func (f *fakeRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func TestInt(t *testing.T) {
	ctx := context.Background()

	svc := NewService(&fakeRepo{values: map[string]string{
		"timer.days": "21",
		"garbage":    "three weeks",
	}})

	if got := svc.Int(ctx, "timer.days", 14); got != 21 {
		t.Errorf("stored value: got %d, want 21", got)
	}
	if got := svc.Int(ctx, "missing", 14); got != 14 {
		t.Errorf("missing key: got %d, want default 14", got)
	}
	if got := svc.Int(ctx, "garbage", 14); got != 14 {
		t.Errorf("malformed value: got %d, want default 14", got)
	}

	svc = NewService(&fakeRepo{err: errors.New("connection refused")})
	if got := svc.Int(ctx, "timer.days", 14); got != 14 {
		t.Errorf("store error: got %d, want default 14", got)
	}
}

func TestIntInRange(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeRepo{values: map[string]string{
		"low":  "2",
		"high": "400",
		"ok":   "30",
	}})

	if got := svc.IntInRange(ctx, "low", 14, 7, 60); got != 7 {
		t.Errorf("below range: got %d, want 7", got)
	}
	if got := svc.IntInRange(ctx, "high", 14, 7, 60); got != 60 {
		t.Errorf("above range: got %d, want 60", got)
	}
	if got := svc.IntInRange(ctx, "ok", 14, 7, 60); got != 30 {
		t.Errorf("in range: got %d, want 30", got)
	}
	if got := svc.IntInRange(ctx, "missing", 14, 7, 60); got != 14 {
		t.Errorf("missing key: got %d, want default 14", got)
	}
}
