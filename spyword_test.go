package main

import (
	"testing"
	"time"

	"github.com/Seednode/partyfun/games/sched"
	"github.com/Seednode/partyfun/games/spyword"
)

func TestRoundStateVisibility(t *testing.T) {
	s := &sched.Manual{}
	round := spyword.New([]spyword.WordPair{{NormalWord: "coffee", SpyWord: "tea"}}, spyword.Options{Scheduler: s})

	msg := newRoundState(round)
	if msg.Stage != "selecting_player_count" || len(msg.Slots) != 0 || msg.Winner != "none" {
		t.Fatalf("unexpected idle state: %+v", msg)
	}

	if err := round.Start(4); err != nil {
		t.Fatal(err)
	}
	if err := round.Reveal(1); err != nil {
		t.Fatal(err)
	}

	msg = newRoundState(round)
	for _, v := range msg.Slots {
		if v.Role != "" {
			t.Errorf("slot %d: role visible before challenge", v.Index)
		}
		if v.Index != 1 && v.Word != "" {
			t.Errorf("slot %d: word visible without reveal", v.Index)
		}
	}
	if msg.NormalWord != "" || msg.SpyWord != "" {
		t.Error("pair disclosed mid-round")
	}

	slot := round.Slots()[1]
	if msg.Slots[1].Word != slot.Word {
		t.Errorf("Expected revealed word %q, got %q", slot.Word, msg.Slots[1].Word)
	}

	s.Advance(spyword.DefaultRevealDelay)
	if w := newRoundState(round).Slots[1].Word; w != "" {
		t.Errorf("Expected word hidden after the reveal window, got %q", w)
	}

	for i := range 4 {
		if i != 1 {
			_ = round.Reveal(i)
		}
	}
	s.Advance(spyword.DefaultRevealDelay + spyword.DefaultAdvanceDelay)
	if round.Stage() != spyword.CheckingResults {
		t.Fatalf("Expected %s, got %s", spyword.CheckingResults, round.Stage())
	}

	_ = round.Challenge(0)
	msg = newRoundState(round)
	want := "civilian"
	if round.Slots()[0].IsSpy {
		want = "spy"
	}
	if msg.Slots[0].Role != want {
		t.Errorf("Expected challenged slot role %q, got %q", want, msg.Slots[0].Role)
	}

	for i := 1; i < 4 && round.Stage() != spyword.RoundComplete; i++ {
		_ = round.Challenge(i)
	}

	msg = newRoundState(round)
	if msg.Stage != "round_complete" || msg.NormalWord != "coffee" || msg.SpyWord != "tea" {
		t.Fatalf("Expected a disclosed finished round, got %+v", msg)
	}
	if msg.SpyCount < 1 {
		t.Errorf("Expected at least one spy, got %d", msg.SpyCount)
	}
	for _, v := range msg.Slots {
		if v.Role == "" {
			t.Errorf("slot %d: role hidden after the round", v.Index)
		}
	}

	s.Advance(time.Minute)
	if round.Stage() != spyword.RoundComplete {
		t.Error("round reset without auto-reset configured")
	}
}
