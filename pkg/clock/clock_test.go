package clock

import (
	"context"
	"testing"
	"time"
)

func TestTicksMonotonic(t *testing.T) {
	c := New(1000, 42, 1)
	first := c.Ticks()
	second := c.Bump()
	if second <= first {
		t.Fatalf("expected ticks to strictly increase: %d -> %d", first, second)
	}
}

func TestClockStringRoundTrip(t *testing.T) {
	c := New(1000, 42, 7)
	c.Bump()
	s := c.String()

	spec, err := ParseSpec(s)
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if spec.Kind != SpecClock {
		t.Fatalf("expected SpecClock, got %v", spec.Kind)
	}
	if spec.Start != 1000 || spec.PID != 42 || spec.RootNumber != 7 {
		t.Fatalf("unexpected identity fields: %+v", spec)
	}
	if spec.Ticks != c.Ticks() {
		t.Fatalf("ticks mismatch: %d != %d", spec.Ticks, c.Ticks())
	}
}

func TestCompareDetectsFreshInstanceOnIdentityMismatch(t *testing.T) {
	c := New(1000, 42, 1)
	spec := Spec{Kind: SpecClock, Start: 999, PID: 42, RootNumber: 1, Ticks: c.Ticks()}
	if !c.Compare(spec) {
		t.Fatal("expected fresh-instance on start-time mismatch")
	}
}

func TestCompareDetectsFreshInstanceOnAgeOut(t *testing.T) {
	c := New(1000, 42, 1)
	c.SetLastAgeOutTick(100)
	spec := Spec{Kind: SpecClock, Start: 1000, PID: 42, RootNumber: 1, Ticks: 50}
	if !c.Compare(spec) {
		t.Fatal("expected fresh-instance when remote ticks precede last age-out tick")
	}
}

func TestCompareNotFreshWhenConsistent(t *testing.T) {
	c := New(1000, 42, 1)
	ticks := c.Bump()
	spec := Spec{Kind: SpecClock, Start: 1000, PID: 42, RootNumber: 1, Ticks: ticks}
	if c.Compare(spec) {
		t.Fatal("expected non-fresh-instance when identity and ticks are consistent")
	}
}

func TestParseSpecWallClock(t *testing.T) {
	spec, err := ParseSpec("1700000000")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Kind != SpecWallClock || spec.WallClock != 1700000000 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseSpecNamedCursor(t *testing.T) {
	spec, err := ParseSpec("n:my-cursor")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Kind != SpecNamedCursor || spec.CursorName != "my-cursor" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParseSpecRejectsGarbage(t *testing.T) {
	if _, err := ParseSpec("not-a-valid-spec"); err == nil {
		t.Fatal("expected error for unrecognized clock-spec")
	}
}

func TestCursorNeverRepeatsResultSet(t *testing.T) {
	c := New(1000, 42, 1)
	c.Bump()
	c.Bump()

	first := c.Cursor("watch")
	secondTicks := c.Ticks()
	second := c.Cursor("watch")

	if second != secondTicks && second < first {
		t.Fatalf("cursor did not advance: first=%d second=%d", first, second)
	}
	if second == first {
		t.Fatal("cursor returned same value on consecutive reads")
	}
}

func TestForgetCursorsBefore(t *testing.T) {
	c := New(1000, 42, 1)
	c.Cursor("stale")
	c.SetLastAgeOutTick(c.Ticks() + 10)
	c.ForgetCursorsBefore(c.Ticks() + 10)

	if tick := c.Cursor("stale"); tick != 0 {
		t.Fatalf("expected forgotten cursor to reset to 0, got %d", tick)
	}
}

func TestCookieSyncFulfillsOnObserve(t *testing.T) {
	sync := NewCookieSync()
	name, wait, err := sync.GenerateName()
	if err != nil {
		t.Fatal(err)
	}
	if !IsCookie(name) {
		t.Fatalf("generated name %q does not look like a cookie", name)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		sync.Observe(name)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}

func TestCookieSyncTimesOutWithoutObserve(t *testing.T) {
	sync := NewCookieSync()
	_, wait, err := sync.GenerateName()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := wait(ctx); err == nil {
		t.Fatal("expected timeout error when cookie is never observed")
	}
}
