/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package spyword implements rounds of the spy-word party game.
//
// Every player is dealt a secret word. Most share the normal word; a random
// minority, the spies, receive a related spy word (or, in some rounds, nothing
// at all). Players privately look at their word once, then take turns
// challenging each other. The non-spies win by challenging every spy; the spies
// win once too few players remain unchallenged to expose them.
//
// A Round is not safe for concurrent use. Callers drive it from a single event
// loop, and the Scheduler they supply must deliver callbacks on that same loop.
package spyword

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Seednode/partyfun/games/cue"
	"github.com/Seednode/partyfun/games/sched"
)

const (
	MinPlayers     = 3
	MaxPlayers     = 12
	DefaultPlayers = 4

	// BlankChance is the per-round probability that spies get an empty word.
	BlankChance = 0.2

	DefaultRevealDelay  = 2 * time.Second
	DefaultAdvanceDelay = 500 * time.Millisecond
)

var (
	ErrNoWordPairs    = errors.New("no word pairs available")
	ErrSlotOutOfRange = errors.New("slot index out of range")
	ErrWrongStage     = errors.New("action not allowed in current stage")
)

// WordPair is one entry of a spy-word deck.
type WordPair struct {
	NormalWord string `json:"normalWord"`
	SpyWord    string `json:"spyWord"`
}

type Stage int

const (
	SelectingPlayerCount Stage = iota
	ViewingWords
	CheckingResults
	RoundComplete
)

func (s Stage) String() string {
	switch s {
	case SelectingPlayerCount:
		return "selecting_player_count"
	case ViewingWords:
		return "viewing_words"
	case CheckingResults:
		return "checking_results"
	case RoundComplete:
		return "round_complete"
	default:
		return "unknown"
	}
}

type Winner int

const (
	NoWinner Winner = iota
	NonSpy
	Spy
)

func (w Winner) String() string {
	switch w {
	case NonSpy:
		return "non_spy"
	case Spy:
		return "spy"
	default:
		return "none"
	}
}

// Slot is one player's state within a round.
type Slot struct {
	Index      int
	Word       string
	IsSpy      bool
	Revealed   bool
	Hidden     bool
	Challenged bool
}

// Random is the source of every draw a round makes.
type Random interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) IntN(n int) int   { return rand.IntN(n) }
func (defaultRandom) Float64() float64 { return rand.Float64() }

// Options configures a Round. Zero values select the defaults.
type Options struct {
	Scheduler sched.Scheduler
	Random    Random
	Cues      cue.Player

	RevealDelay  time.Duration
	AdvanceDelay time.Duration
	// AutoReset, when positive, resets the round this long after it completes.
	AutoReset time.Duration
}

// Round owns the lifecycle of consecutive spy-word rounds over one word deck.
type Round struct {
	pairs []WordPair
	opts  Options

	playerCount int
	stage       Stage
	winner      Winner
	id          string
	pair        WordPair
	blank       bool
	spyCount    int
	slots       []Slot

	// gen increments whenever per-round state is discarded, so callbacks that
	// were already delivered for an older round are ignored.
	gen          uint64
	hideTimers   map[int]sched.Timer
	advanceTimer sched.Timer
	resetTimer   sched.Timer
}

// New returns a Round in SelectingPlayerCount. The deck is copied.
// opts.Scheduler is required.
func New(pairs []WordPair, opts Options) *Round {
	if opts.Scheduler == nil {
		panic("spyword: nil scheduler")
	}
	if opts.Random == nil {
		opts.Random = defaultRandom{}
	}
	if opts.Cues == nil {
		opts.Cues = cue.Nop
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = DefaultAdvanceDelay
	}

	return &Round{
		pairs:       append([]WordPair(nil), pairs...),
		opts:        opts,
		playerCount: DefaultPlayers,
		hideTimers:  make(map[int]sched.Timer),
	}
}

// ClampPlayers bounds n to the supported player range.
func ClampPlayers(n int) int {
	return min(max(n, MinPlayers), MaxPlayers)
}

// MaxSpies is the upper bound of the spy count draw for n players.
func MaxSpies(n int) int {
	return max(1, n/3)
}

func (r *Round) Stage() Stage       { return r.stage }
func (r *Round) Winner() Winner     { return r.winner }
func (r *Round) PlayerCount() int   { return r.playerCount }
func (r *Round) CanStart() bool     { return len(r.pairs) > 0 }
func (r *Round) ID() string         { return r.id }
func (r *Round) Pair() WordPair     { return r.pair }
func (r *Round) Blank() bool        { return r.blank }
func (r *Round) SpyCount() int      { return r.spyCount }
func (r *Round) Slots() []Slot      { return append([]Slot(nil), r.slots...) }
func (r *Round) inRange(i int) bool { return i >= 0 && i < len(r.slots) }

// SetPlayerCount adjusts the player count while no round is running and
// returns the clamped value that was stored.
func (r *Round) SetPlayerCount(n int) (int, error) {
	if r.stage != SelectingPlayerCount {
		return r.playerCount, ErrWrongStage
	}
	r.playerCount = ClampPlayers(n)

	return r.playerCount, nil
}

// Start deals a new round for playerCount players (clamped). Without a deck it
// returns ErrNoWordPairs and leaves the round untouched.
func (r *Round) Start(playerCount int) error {
	if r.stage != SelectingPlayerCount {
		return ErrWrongStage
	}
	if len(r.pairs) == 0 {
		return ErrNoWordPairs
	}

	r.discard()

	r.playerCount = ClampPlayers(playerCount)
	r.id = uuid.NewString()
	r.pair = r.pairs[r.opts.Random.IntN(len(r.pairs))]
	r.spyCount = 1 + r.opts.Random.IntN(MaxSpies(r.playerCount))

	spies := make(map[int]bool, r.spyCount)
	for len(spies) < r.spyCount {
		spies[r.opts.Random.IntN(r.playerCount)] = true
	}

	r.blank = r.opts.Random.Float64() < BlankChance

	r.slots = make([]Slot, r.playerCount)
	for i := range r.slots {
		s := Slot{Index: i, Word: r.pair.NormalWord}
		if spies[i] {
			s.IsSpy = true
			s.Word = r.pair.SpyWord
			if r.blank {
				s.Word = ""
			}
		}
		r.slots[i] = s
	}

	r.stage = ViewingWords

	return nil
}

// Reveal marks slot i as privately viewed and schedules it to leave the
// viewing grid. Revealing a slot twice is a no-op.
func (r *Round) Reveal(i int) error {
	if r.stage != ViewingWords {
		return ErrWrongStage
	}
	if !r.inRange(i) {
		return ErrSlotOutOfRange
	}
	if r.slots[i].Revealed {
		return nil
	}

	r.slots[i].Revealed = true
	r.opts.Cues.Play(cue.Flip)

	gen := r.gen
	r.hideTimers[i] = r.schedule(r.opts.RevealDelay, func() {
		if gen != r.gen {
			return
		}
		r.hide(i)
	})

	return nil
}

func (r *Round) hide(i int) {
	delete(r.hideTimers, i)
	r.slots[i].Hidden = true

	if r.advanceTimer != nil || !lo.EveryBy(r.slots, func(s Slot) bool { return s.Hidden }) {
		return
	}

	gen := r.gen
	r.advanceTimer = r.schedule(r.opts.AdvanceDelay, func() {
		if gen != r.gen || r.stage != ViewingWords {
			return
		}
		r.advanceTimer = nil
		r.stage = CheckingResults
	})
}

// Challenge publicly checks slot i and resolves the round if a side has won.
// Challenging a slot twice is a no-op.
func (r *Round) Challenge(i int) error {
	if r.stage != CheckingResults {
		return ErrWrongStage
	}
	if !r.inRange(i) {
		return ErrSlotOutOfRange
	}
	if r.slots[i].Challenged {
		return nil
	}

	r.slots[i].Challenged = true
	if r.slots[i].IsSpy {
		r.opts.Cues.Play(cue.Correct)
	} else {
		r.opts.Cues.Play(cue.Wrong)
	}

	r.winner = Evaluate(r.slots)
	if r.winner == NoWinner {
		return nil
	}

	r.stage = RoundComplete
	r.opts.Cues.Play(cue.RoundEnd)

	if r.opts.AutoReset > 0 {
		gen := r.gen
		r.resetTimer = r.schedule(r.opts.AutoReset, func() {
			if gen != r.gen {
				return
			}
			r.resetTimer = nil
			r.Reset()
		})
	}

	return nil
}

// Evaluate applies the win rules to a set of slots. Non-spies take priority
// when both sides satisfy their condition at once.
func Evaluate(slots []Slot) Winner {
	nonSpyWin := lo.EveryBy(slots, func(s Slot) bool { return !s.IsSpy || s.Challenged })

	unchecked := lo.CountBy(slots, func(s Slot) bool { return !s.Challenged })
	limit := 3
	if len(slots) < 6 {
		limit = 2
	}
	spyWin := unchecked <= limit

	switch {
	case nonSpyWin:
		return NonSpy
	case spyWin:
		return Spy
	default:
		return NoWinner
	}
}

// Reset discards the current round and returns to player selection. The
// player count is kept.
func (r *Round) Reset() {
	r.discard()
	r.stage = SelectingPlayerCount
}

// Close cancels all pending callbacks. The round must not be used afterwards.
func (r *Round) Close() {
	r.discard()
}

func (r *Round) discard() {
	r.gen++

	for i, t := range r.hideTimers {
		t.Stop()
		delete(r.hideTimers, i)
	}
	if r.advanceTimer != nil {
		r.advanceTimer.Stop()
		r.advanceTimer = nil
	}
	if r.resetTimer != nil {
		r.resetTimer.Stop()
		r.resetTimer = nil
	}

	r.slots = nil
	r.winner = NoWinner
	r.id = ""
	r.pair = WordPair{}
	r.blank = false
	r.spyCount = 0
}

func (r *Round) schedule(d time.Duration, f func()) sched.Timer {
	return r.opts.Scheduler.AfterFunc(d, f)
}
