package game

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry errors.
var (
	ErrNilGame       = errors.New("cannot register nil game")
	ErrEmptyCommand  = errors.New("game command cannot be empty")
	ErrDuplicateGame = errors.New("game already registered")
	ErrUnknownGame   = fmt.Errorf("%w: unknown game", ErrInvalidArgument)
)

// Registry maps commands to games. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register adds g under its command. Each command can be registered once;
// call Unregister first to swap an engine.
func (r *Registry) Register(g Game) error {
	if g == nil {
		return ErrNilGame
	}
	cmd := g.Command()
	if cmd == "" {
		return ErrEmptyCommand
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[cmd]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGame, cmd)
	}
	r.games[cmd] = g
	return nil
}

// Get looks up a game by command.
func (r *Registry) Get(command string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[command]
	return g, ok
}

// ValidateBet checks bet against the limits of the game registered under
// command.
func (r *Registry) ValidateBet(command string, bet float64) error {
	g, ok := r.Get(command)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGame, command)
	}
	return g.ValidateBet(bet)
}

// Commands returns the registered commands in sorted order.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.games))
}

// List returns the registered games ordered by command.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Game, 0, len(r.games))
	for _, cmd := range slices.Sorted(maps.Keys(r.games)) {
		out = append(out, r.games[cmd])
	}
	return out
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Unregister removes the game registered under command and reports
// whether there was one.
func (r *Registry) Unregister(command string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.games[command]
	delete(r.games, command)
	return ok
}
