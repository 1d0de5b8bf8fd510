package plan

import (
	"encoding/json"
	"testing"
)

func TestLadderValidate(t *testing.T) {
	if err := (Ladder{}).Validate(); err != ErrEmptyLadder {
		t.Fatalf("expected ErrEmptyLadder, got %v", err)
	}
	if err := (Ladder{Levels: []Level{{Price: 0}}}).Validate(); err != ErrBadLadderLevel {
		t.Fatalf("expected ErrBadLadderLevel, got %v", err)
	}
	if err := (Ladder{Levels: []Level{{Price: 10}, {Price: 9.5, SizeFraction: 0.5}}}).Validate(); err != nil {
		t.Fatalf("expected valid ladder, got %v", err)
	}
}

func TestStopValidate(t *testing.T) {
	if err := (Stop{}).Validate(); err != ErrMissingStopTotal {
		t.Fatalf("expected ErrMissingStopTotal, got %v", err)
	}
	if err := (Stop{StopTotal: -1}).Validate(); err != ErrMissingStopTotal {
		t.Fatalf("expected ErrMissingStopTotal for negative total, got %v", err)
	}
	if err := (Stop{StopTotal: 5, StopType: "trailing"}).Validate(); err != nil {
		t.Fatalf("expected valid stop, got %v", err)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	ladder := Ladder{Levels: []Level{{Price: 10}}}
	stop := Stop{StopTotal: 5}

	rawLadder, err := json.Marshal(ladder)
	if err != nil {
		t.Fatalf("marshal ladder: %v", err)
	}
	rawStop, err := json.Marshal(stop)
	if err != nil {
		t.Fatalf("marshal stop: %v", err)
	}

	gotLadder := DecodeLadder(rawLadder)
	if gotLadder == nil {
		t.Fatal("expected ladder to decode")
	}
	if len(gotLadder.Levels) != 1 || gotLadder.Levels[0].Price != 10 {
		t.Fatalf("round trip lost ladder levels: %+v", gotLadder)
	}

	gotStop := DecodeStop(rawStop)
	if gotStop == nil {
		t.Fatal("expected stop to decode")
	}
	if gotStop.StopTotal != 5 {
		t.Fatalf("round trip lost stop_total: %+v", gotStop)
	}
}

func TestDecodeDegradesToNil(t *testing.T) {
	for _, raw := range [][]byte{
		nil,
		[]byte(""),
		[]byte("not json"),
		[]byte(`{"levels":[]}`),
		[]byte(`{"levels":[{"price":0}]}`),
	} {
		if got := DecodeLadder(raw); got != nil {
			t.Fatalf("expected nil ladder for %q, got %+v", raw, got)
		}
	}

	for _, raw := range [][]byte{
		nil,
		[]byte("{"),
		[]byte(`{}`),
		[]byte(`{"stop_total":0}`),
	} {
		if got := DecodeStop(raw); got != nil {
			t.Fatalf("expected nil stop for %q, got %+v", raw, got)
		}
	}
}
