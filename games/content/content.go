/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package content loads the bundled decks every game draws from.
package content

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math/rand/v2"
	"path"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Seednode/partyfun/games/spyword"
)

var (
	ErrUnknownGame  = errors.New("unknown game")
	ErrGameDisabled = errors.New("game is disabled")
	ErrNoCards      = errors.New("no cards available")
	ErrUnknownTopic = errors.New("unknown topic")
)

type Kind string

const (
	KindCard     Kind = "card"
	KindSpyWord  Kind = "spyword"
	KindCharades Kind = "charades"
)

type Game struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	DataFile    string `json:"-"`
	Enabled     bool   `json:"enabled"`
}

// Word is a styled run of text within a split card body.
type Word struct {
	Content      string  `json:"content"`
	FontSize     float64 `json:"fontSize"`
	HasUnderline bool    `json:"hasUnderline"`
}

type Line struct {
	Words []Word `json:"words"`
}

type Card struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	SplitBody []Line `json:"splitBody,omitempty"`
}

// Topic is a charades word list.
type Topic struct {
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Cards []string `json:"cards"`
}

// DefaultGames is the catalog served when no other is configured.
var DefaultGames = []Game{
	{ID: "chat", Title: "Chat Box", Description: "Conversation starters for any crowd", Kind: KindCard, DataFile: "chat.json", Enabled: true},
	{ID: "truth", Title: "Truth or Dare", Description: "The classic, one card at a time", Kind: KindCard, DataFile: "truth.json", Enabled: true},
	{ID: "drink", Title: "Drinking Rules", Description: "Draw a rule, play a round", Kind: KindCard, DataFile: "drink.json", Enabled: true},
	{ID: "haigui", Title: "Turtle Soup", Description: "Lateral-thinking riddles, answers underneath", Kind: KindCard, DataFile: "haigui.json", Enabled: true},
	{ID: "wodi", Title: "Who's the Spy", Description: "Find the players holding a different word", Kind: KindSpyWord, DataFile: "wodi.json", Enabled: true},
	{ID: "charades", Title: "Heads Up", Description: "Tilt to score, tilt to skip", Kind: KindCharades, DataFile: "topics.json", Enabled: true},
	{ID: "emoji", Title: "Emoji Guess", Description: "Coming soon", Kind: KindCard, DataFile: "emoji.json", Enabled: false},
}

// Catalog holds every deck in memory. It is read-only after Load and safe for
// concurrent use.
type Catalog struct {
	games  []Game
	cards  map[string][]Card
	pairs  map[string][]spyword.WordPair
	topics []Topic
}

// Load decodes each enabled game's data file from fsys. A file that is missing
// or malformed leaves that game with an empty deck; it never fails the catalog.
func Load(fsys fs.FS, games []Game, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Catalog{
		games: append([]Game(nil), games...),
		cards: make(map[string][]Card),
		pairs: make(map[string][]spyword.WordPair),
	}

	for _, g := range c.games {
		if !g.Enabled {
			continue
		}

		var err error
		switch g.Kind {
		case KindCard:
			var cards []Card
			if err = decode(fsys, g.DataFile, &cards); err == nil {
				c.cards[g.ID] = cards
			}
		case KindSpyWord:
			var pairs []spyword.WordPair
			if err = decode(fsys, g.DataFile, &pairs); err == nil {
				c.pairs[g.ID] = pairs
			}
		case KindCharades:
			var topics []Topic
			if err = decode(fsys, g.DataFile, &topics); err == nil {
				c.topics = append(c.topics, topics...)
			}
		}

		// A partially decoded file is discarded whole.
		if err != nil {
			logger.Warn("failed to load game data",
				zap.String("game", g.ID),
				zap.String("file", g.DataFile),
				zap.Error(err))
			continue
		}

		logger.Debug("loaded game data", zap.String("game", g.ID), zap.String("file", g.DataFile))
	}

	return c
}

func decode(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func (c *Catalog) Games() []Game {
	return append([]Game(nil), c.games...)
}

// EnabledGames lists the games players can open.
func (c *Catalog) EnabledGames() []Game {
	return lo.Filter(c.games, func(g Game, _ int) bool { return g.Enabled })
}

func (c *Catalog) Game(id string) (Game, bool) {
	return lo.Find(c.games, func(g Game) bool { return g.ID == id })
}

// Cards returns a card game's deck. Unknown games have none.
func (c *Catalog) Cards(gameID string) []Card {
	return append([]Card(nil), c.cards[gameID]...)
}

// WordPairs returns a spy-word game's deck. An empty result means no round
// can be started.
func (c *Catalog) WordPairs(gameID string) []spyword.WordPair {
	return append([]spyword.WordPair(nil), c.pairs[gameID]...)
}

// RandomCard draws a card uniformly from a card game's deck.
func (c *Catalog) RandomCard(gameID string) (Card, error) {
	g, ok := c.Game(gameID)
	if !ok || g.Kind != KindCard {
		return Card{}, ErrUnknownGame
	}
	if !g.Enabled {
		return Card{}, ErrGameDisabled
	}

	cards := c.cards[gameID]
	if len(cards) == 0 {
		return Card{}, ErrNoCards
	}

	return cards[rand.IntN(len(cards))], nil
}

func (c *Catalog) Topics() []Topic {
	return append([]Topic(nil), c.topics...)
}

func (c *Catalog) TopicNames() []string {
	return lo.Map(c.topics, func(t Topic, _ int) string { return t.Name })
}

// ShuffledTopic returns a copy of a topic's cards in random order.
func (c *Catalog) ShuffledTopic(name string) ([]string, error) {
	t, ok := lo.Find(c.topics, func(t Topic) bool { return t.Name == name })
	if !ok {
		return nil, ErrUnknownTopic
	}

	cards := append([]string(nil), t.Cards...)
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return cards, nil
}
