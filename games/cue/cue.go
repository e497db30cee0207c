/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package cue names the sound effects games ask clients to play.
package cue

// Cue identifies a sound clip by its base filename on the client.
type Cue string

const (
	Count    Cue = "count"
	Flip     Cue = "flip_paper"
	Correct  Cue = "check"
	Wrong    Cue = "fail"
	RoundEnd Cue = "game_end"
)

// Player receives fire-and-forget cue notifications.
type Player interface {
	Play(c Cue)
}

// Func adapts a plain function to Player.
type Func func(c Cue)

func (f Func) Play(c Cue) {
	if f != nil {
		f(c)
	}
}

type nop struct{}

func (nop) Play(Cue) {}

// Nop discards every cue.
var Nop Player = nop{}
