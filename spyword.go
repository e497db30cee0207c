/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Spy Word
//
// Every player but the spies gets the same word; the spies get a related one,
// or nothing at all in a blank round. Players pass one phone around, each
// privately viewing their word, and then take turns accusing each other.
//
// Features:
// - WebSockets per game ID: /spyword/:gameid and /spyword/:gameid/ws
// - 3-12 players, 1 to players/3 spies, 20% blank rounds
// - Words are only sent to clients while a slot's reveal window is open
// - Roles are only sent once a slot has been challenged or the round is over
// - Sound cues broadcast to every client in the session

package main

import (
	"errors"

	"github.com/Seednode/partyfun/games/content"
	"github.com/Seednode/partyfun/games/cue"
	"github.com/Seednode/partyfun/games/sched"
	"github.com/Seednode/partyfun/games/spyword"
)

var errMissingIndex = errors.New("missing slot index")

// SlotView is one slot as clients may see it.
type SlotView struct {
	Index      int    `json:"index"`
	Revealed   bool   `json:"revealed"`
	Hidden     bool   `json:"hidden"`
	Challenged bool   `json:"challenged"`
	Word       string `json:"word,omitempty"`
	Role       string `json:"role,omitempty"` // "spy" or "civilian", once known
}

// RoundStateMessage is broadcast after every change to the round.
type RoundStateMessage struct {
	Type        string     `json:"type"` // "round_state"
	RoundID     string     `json:"round_id,omitempty"`
	Stage       string     `json:"stage"`
	PlayerCount int        `json:"player_count"`
	MinPlayers  int        `json:"min_players"`
	MaxPlayers  int        `json:"max_players"`
	CanStart    bool       `json:"can_start"`
	Winner      string     `json:"winner"`
	SpyCount    int        `json:"spy_count,omitempty"`
	Blank       bool       `json:"blank,omitempty"`
	NormalWord  string     `json:"normal_word,omitempty"`
	SpyWord     string     `json:"spy_word,omitempty"`
	Slots       []SlotView `json:"slots"`
}

func newRoundState(r *spyword.Round) RoundStateMessage {
	complete := r.Stage() == spyword.RoundComplete

	msg := RoundStateMessage{
		Type:        "round_state",
		RoundID:     r.ID(),
		Stage:       r.Stage().String(),
		PlayerCount: r.PlayerCount(),
		MinPlayers:  spyword.MinPlayers,
		MaxPlayers:  spyword.MaxPlayers,
		CanStart:    r.CanStart(),
		Winner:      r.Winner().String(),
		Slots:       []SlotView{},
	}

	for _, s := range r.Slots() {
		v := SlotView{
			Index:      s.Index,
			Revealed:   s.Revealed,
			Hidden:     s.Hidden,
			Challenged: s.Challenged,
		}
		if complete || (s.Revealed && !s.Hidden) {
			v.Word = s.Word
		}
		if complete || s.Challenged {
			v.Role = "civilian"
			if s.IsSpy {
				v.Role = "spy"
			}
		}
		msg.Slots = append(msg.Slots, v)
	}

	if complete {
		msg.SpyCount = r.SpyCount()
		msg.Blank = r.Blank()
		msg.NormalWord = r.Pair().NormalWord
		msg.SpyWord = r.Pair().SpyWord
	}

	return msg
}

type spyGame struct {
	cfg   *Config
	room  *room
	round *spyword.Round
}

func newSpyGame(cfg *Config, catalog *content.Catalog) func(r *room) game {
	pairs := catalog.WordPairs("wodi")

	return func(r *room) game {
		g := &spyGame{cfg: cfg, room: r}
		g.round = spyword.New(pairs, spyword.Options{
			Scheduler: sched.NewLoop(r),
			Cues: cue.Func(func(c cue.Cue) {
				r.broadcast(CueMessage{Type: "cue", Name: string(c)})
			}),
			RevealDelay:  cfg.revealDelay,
			AdvanceDelay: cfg.advanceDelay,
			AutoReset:    cfg.autoReset,
		})

		return g
	}
}

func (g *spyGame) welcome(c *Client) {
	g.room.sendTo(c, newRoundState(g.round))
}

func (g *spyGame) handle(c *Client, msg ClientMessage) {
	var err error

	switch msg.Type {
	case "set_players":
		_, err = g.round.SetPlayerCount(msg.Count)
	case "start":
		count := msg.Count
		if count == 0 {
			count = g.round.PlayerCount()
		}
		err = g.round.Start(count)
		if err == nil {
			logf(g.cfg, "GAMES: Spy word round %s started in %s with %d players",
				g.round.ID(), g.room.id, g.round.PlayerCount())
		}
	case "reveal":
		if msg.Index == nil {
			err = errMissingIndex
			break
		}
		err = g.round.Reveal(*msg.Index)
	case "challenge":
		if msg.Index == nil {
			err = errMissingIndex
			break
		}
		err = g.round.Challenge(*msg.Index)
		if err == nil && g.round.Stage() == spyword.RoundComplete {
			logf(g.cfg, "GAMES: Spy word round %s in %s won by %s",
				g.round.ID(), g.room.id, g.round.Winner())
		}
	case "reset":
		g.round.Reset()
	default:
		return
	}

	if err != nil {
		g.room.sendError(c, err)
		return
	}

	g.room.broadcast(newRoundState(g.round))
}

func (g *spyGame) afterTask() {
	g.room.broadcast(newRoundState(g.round))
}

func (g *spyGame) shutdown() {
	g.round.Close()
}
