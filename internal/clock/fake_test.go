package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresDueTickers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	tk := f.NewTicker(time.Second)

	f.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatalf("ticker fired before its period")
	default:
	}

	f.Advance(500 * time.Millisecond)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(time.Second)) {
			t.Fatalf("tick at %s, want %s", got, start.Add(time.Second))
		}
	default:
		t.Fatalf("expected a tick")
	}

	if !f.Now().Equal(start.Add(time.Second)) {
		t.Fatalf("Now() = %s", f.Now())
	}
}

func TestFake_StoppedTickerIsSilent(t *testing.T) {
	f := NewFake(time.Now())
	tk := f.NewTicker(time.Second)
	tk.Stop()
	f.Advance(time.Hour)
	select {
	case <-tk.C():
		t.Fatalf("stopped ticker fired")
	default:
	}
}

func TestWall_TickerTicks(t *testing.T) {
	tk := Wall.NewTicker(5 * time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatalf("wall ticker never fired")
	}
}
