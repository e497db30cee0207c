/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package charades runs the tilt-controlled guessing game.
//
// One player holds the phone against their forehead, screen facing the
// group, while the others act out the card. Tilting the screen down marks the
// card as guessed, tilting it up skips it, and returning the screen to face
// the group moves on to the next card.
package charades

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/Seednode/partyfun/games/cue"
	"github.com/Seednode/partyfun/games/sched"
)

const (
	ReadyCountdown  = 3
	DefaultDuration = 180
	tick            = time.Second
)

// Durations lists the round lengths, in seconds, players may choose from.
var Durations = []int{60, 120, 180, 240, 300}

var (
	ErrInvalidDuration = errors.New("invalid round duration")
	ErrNoCards         = errors.New("topic has no cards")
)

type Direction int

const (
	Unknown Direction = iota
	Front
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Front:
		return "front"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Classify maps an accelerometer reading, in g, to the way the screen faces
// while the phone is held in landscape.
func Classify(x, y, z float64) Direction {
	switch {
	case x < -0.5 && math.Abs(y) < 0.3 && math.Abs(z) < 0.3:
		return Front
	case z < -0.4 && math.Abs(x) < 0.6 && math.Abs(y) < 0.5:
		return Up
	case z > 0.4 && math.Abs(x) < 0.6 && math.Abs(y) < 0.5:
		return Down
	default:
		return Unknown
	}
}

type Stage int

const (
	BeforeReady Stage = iota
	Ready
	Started
	Ended
)

func (s Stage) String() string {
	switch s {
	case BeforeReady:
		return "before_ready"
	case Ready:
		return "ready"
	case Started:
		return "started"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

type Verdict int

const (
	Pending Verdict = iota
	Correct
	Skipped
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

type Options struct {
	Scheduler sched.Scheduler
	Cues      cue.Player
}

// State is a point-in-time view of a game.
type State struct {
	Stage     Stage
	Direction Direction
	Countdown int
	TimeLeft  int
	Card      string
	Verdict   Verdict
	Correct   int
	Remaining int
}

// Game is one charades round over a fixed deck. It is not safe for
// concurrent use.
type Game struct {
	cards    []string
	duration int
	opts     Options

	stage     Stage
	direction Direction
	countdown int
	timeLeft  int
	index     int
	correct   int
	verdict   Verdict

	gen   uint64
	timer sched.Timer
}

// New prepares a game that starts once the screen is first turned to face the
// group. duration is in seconds and must be one of Durations.
func New(cards []string, duration int, opts Options) (*Game, error) {
	if opts.Scheduler == nil {
		panic("charades: nil scheduler")
	}
	if !slices.Contains(Durations, duration) {
		return nil, ErrInvalidDuration
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if opts.Cues == nil {
		opts.Cues = cue.Nop
	}

	return &Game{
		cards:    append([]string(nil), cards...),
		duration: duration,
		opts:     opts,
	}, nil
}

func (g *Game) Stage() Stage { return g.stage }

func (g *Game) State() State {
	s := State{
		Stage:     g.stage,
		Direction: g.direction,
		Countdown: g.countdown,
		TimeLeft:  g.timeLeft,
		Verdict:   g.verdict,
		Correct:   g.correct,
		Remaining: max(0, len(g.cards)-g.index),
	}
	if g.stage == Started && g.index < len(g.cards) {
		s.Card = g.cards[g.index]
	}

	return s
}

// Motion feeds one accelerometer reading. Only a change of direction has any
// effect.
func (g *Game) Motion(x, y, z float64) {
	d := Classify(x, y, z)
	if d == Unknown || d == g.direction {
		return
	}
	g.direction = d

	switch d {
	case Front:
		switch {
		case g.stage == BeforeReady:
			g.startCountdown()
		case g.stage == Started && g.verdict != Pending:
			g.nextCard()
		}
	case Up, Down:
		if g.stage != Started || g.verdict != Pending {
			return
		}
		if d == Down {
			g.verdict = Correct
			g.correct++
			g.opts.Cues.Play(cue.Correct)
		} else {
			g.verdict = Skipped
			g.opts.Cues.Play(cue.Wrong)
		}
	}
}

func (g *Game) startCountdown() {
	g.stage = Ready
	g.countdown = ReadyCountdown
	g.opts.Cues.Play(cue.Count)
	g.every(func() bool {
		g.countdown--
		if g.countdown > 0 {
			return true
		}
		g.start()
		return false
	})
}

func (g *Game) start() {
	g.stage = Started
	g.timeLeft = g.duration
	g.index = 0
	g.correct = 0
	g.verdict = Pending
	g.every(func() bool {
		g.timeLeft--
		if g.timeLeft > 0 {
			return true
		}
		g.end(true)
		return false
	})
}

func (g *Game) nextCard() {
	g.verdict = Pending
	g.index++
	if g.index >= len(g.cards) {
		g.end(true)
		return
	}
	g.opts.Cues.Play(cue.Flip)
}

// Stop ends the game early without the end-of-round cue.
func (g *Game) Stop() {
	if g.stage != Ended {
		g.end(false)
	}
}

// Close cancels pending timers. The game must not be used afterwards.
func (g *Game) Close() {
	g.cancel()
}

func (g *Game) end(withCue bool) {
	g.cancel()
	g.stage = Ended
	if withCue {
		g.opts.Cues.Play(cue.RoundEnd)
	}
}

func (g *Game) cancel() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// every runs f once per tick until it returns false or the game moves on.
func (g *Game) every(f func() bool) {
	g.cancel()
	gen := g.gen

	var step func()
	step = func() {
		if gen != g.gen {
			return
		}
		g.timer = nil
		if f() && gen == g.gen {
			g.timer = g.opts.Scheduler.AfterFunc(tick, step)
		}
	}
	g.timer = g.opts.Scheduler.AfterFunc(tick, step)
}
