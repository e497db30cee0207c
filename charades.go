/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Tilt Charades
//
// The phone streams accelerometer readings over the socket; everyone else in
// the session watches the card, timer and score update live.

package main

import (
	"time"

	"github.com/Seednode/partyfun/games/charades"
	"github.com/Seednode/partyfun/games/content"
	"github.com/Seednode/partyfun/games/cue"
	"github.com/Seednode/partyfun/games/sched"
)

// CharadesStateMessage is broadcast whenever the visible game state changes.
type CharadesStateMessage struct {
	Type      string   `json:"type"` // "charades_state"
	Topic     string   `json:"topic,omitempty"`
	Topics    []string `json:"topics"`
	Durations []int    `json:"durations"`
	Duration  int      `json:"duration"`
	Stage     string   `json:"stage"`
	Direction string   `json:"direction"`
	Countdown int      `json:"countdown,omitempty"`
	TimeLeft  int      `json:"time_left"`
	Card      string   `json:"card,omitempty"`
	Verdict   string   `json:"verdict"`
	Correct   int      `json:"correct"`
	Remaining int      `json:"remaining"`
}

type charadesGame struct {
	cfg     *Config
	room    *room
	catalog *content.Catalog

	topic    string
	duration int
	game     *charades.Game
	last     charades.State
}

func newCharadesGame(cfg *Config, catalog *content.Catalog) func(r *room) game {
	return func(r *room) game {
		return &charadesGame{
			cfg:      cfg,
			room:     r,
			catalog:  catalog,
			duration: int(cfg.charadesDuration / time.Second),
		}
	}
}

func (g *charadesGame) state() CharadesStateMessage {
	msg := CharadesStateMessage{
		Type:      "charades_state",
		Topic:     g.topic,
		Topics:    g.catalog.TopicNames(),
		Durations: charades.Durations,
		Duration:  g.duration,
		Stage:     charades.BeforeReady.String(),
		Direction: charades.Unknown.String(),
		Verdict:   charades.Pending.String(),
	}
	if msg.Topics == nil {
		msg.Topics = []string{}
	}

	if g.game != nil {
		st := g.game.State()
		msg.Stage = st.Stage.String()
		msg.Direction = st.Direction.String()
		msg.Countdown = st.Countdown
		msg.TimeLeft = st.TimeLeft
		msg.Card = st.Card
		msg.Verdict = st.Verdict.String()
		msg.Correct = st.Correct
		msg.Remaining = st.Remaining
	}

	return msg
}

func (g *charadesGame) welcome(c *Client) {
	g.room.sendTo(c, g.state())
}

func (g *charadesGame) handle(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "start":
		duration := msg.Duration
		if duration == 0 {
			duration = g.duration
		}

		cards, err := g.catalog.ShuffledTopic(msg.Topic)
		if err != nil {
			g.room.sendError(c, err)
			return
		}

		next, err := charades.New(cards, duration, charades.Options{
			Scheduler: sched.NewLoop(g.room),
			Cues: cue.Func(func(name cue.Cue) {
				g.room.broadcast(CueMessage{Type: "cue", Name: string(name)})
			}),
		})
		if err != nil {
			g.room.sendError(c, err)
			return
		}

		if g.game != nil {
			g.game.Close()
		}
		g.game = next
		g.topic = msg.Topic
		g.duration = duration

		logf(g.cfg, "GAMES: Charades started in %s on %s for %ds", g.room.id, g.topic, duration)

	case "motion":
		if g.game == nil {
			return
		}
		g.game.Motion(msg.X, msg.Y, msg.Z)

	case "stop":
		if g.game == nil {
			return
		}
		g.game.Stop()

	default:
		return
	}

	g.publish(msg.Type != "motion")
}

func (g *charadesGame) afterTask() {
	g.publish(false)
}

// publish broadcasts the state if it changed since the last broadcast, or
// unconditionally when force is set.
func (g *charadesGame) publish(force bool) {
	var st charades.State
	if g.game != nil {
		st = g.game.State()
	}
	if !force && st == g.last {
		return
	}
	g.last = st

	g.room.broadcast(g.state())
}

func (g *charadesGame) shutdown() {
	if g.game != nil {
		g.game.Close()
	}
}
