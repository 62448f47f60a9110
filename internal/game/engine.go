package game

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"stockgame/internal/market"
)

// State represents the round lifecycle.
type State int

const (
	StateIdle   State = iota // No round yet; waiting for the first start
	StateActive              // Round running, prices ticking
	StateEnded               // Round finished; a new start is allowed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the tunable round parameters.
type Config struct {
	InitialCash  int64
	DurationSec  int
	TickInterval time.Duration
}

// DefaultConfig returns the classic two-minute game.
func DefaultConfig() Config {
	return Config{
		InitialCash:  500000,
		DurationSec:  120,
		TickInterval: time.Second,
	}
}

// RoundResult is one participant's final standing for a completed round.
type RoundResult struct {
	ParticipantID string
	FinalBalance  int64
	Profit        int64
	Rank          int
}

// Engine is the authoritative game state machine for the single room: it
// owns the market snapshot, every participant's ledger and the round clock,
// and it is the only writer of any of them. One mutex serializes starts,
// ticks, trades and connection changes, so a trade can never observe a
// half-updated market. Outbound envelopes are collected under the lock and
// delivered after it is released.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	sim   *market.Simulator
	clock RoundClock
	sink  Sink

	state   State
	roundID string
	started time.Time

	// Replaced wholesale each tick; envelopes hold references to retired
	// snapshots, which are never mutated again.
	prices  map[market.Symbol]int64
	changes map[market.Symbol]int64

	participants map[string]*Participant

	onRoundEnd func(roundID string, started, ended time.Time, results []RoundResult)

	quit     chan struct{}
	quitOnce sync.Once
}

// NewEngine creates an idle engine. The sink receives all outbound events.
func NewEngine(cfg Config, sim *market.Simulator, sink Sink) *Engine {
	return &Engine{
		cfg:          cfg,
		sim:          sim,
		sink:         sink,
		state:        StateIdle,
		prices:       sim.StartingPrices(),
		changes:      zeroChanges(sim),
		participants: make(map[string]*Participant),
		quit:         make(chan struct{}),
	}
}

// OnRoundEnd registers a callback invoked (outside the engine lock) with
// the final results of each completed round.
func (e *Engine) OnRoundEnd(fn func(roundID string, started, ended time.Time, results []RoundResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRoundEnd = fn
}

// Connect registers the participant if new and sends it the current game
// status. Safe to call again for a known id after a reconnect.
func (e *Engine) Connect(id string) {
	e.mu.Lock()
	p, ok := e.participants[id]
	if !ok {
		p = NewParticipant(id, e.cfg.InitialCash)
		e.participants[id] = p
	}
	env := initStatusEvent(p, e.prices, e.state == StateActive)
	e.mu.Unlock()

	e.sink.SendTo(id, env)
}

// Disconnect drops the participant record. In-flight trades have already
// been applied or rejected; this only stops future private sends from
// targeting a dead connection.
func (e *Engine) Disconnect(id string) {
	e.mu.Lock()
	delete(e.participants, id)
	e.mu.Unlock()
}

// RequestStart begins a new round. While a round is active it is a no-op:
// the running round continues untouched.
func (e *Engine) RequestStart() {
	e.mu.Lock()
	if e.state == StateActive {
		e.mu.Unlock()
		return
	}

	e.roundID = fmt.Sprintf("round_%d", time.Now().UnixNano())
	e.started = time.Now()
	e.prices = e.sim.StartingPrices()
	e.changes = zeroChanges(e.sim)
	for _, p := range e.participants {
		p.Reset(e.cfg.InitialCash)
	}
	e.clock.Start(e.cfg.DurationSec)
	e.state = StateActive

	roundID := e.roundID
	outAll := []Envelope{
		gameStartedEvent(),
		updateDataEvent(e.clock.Remaining(), e.prices, e.changes),
	}
	direct := make(map[string]Envelope, len(e.participants))
	for id, p := range e.participants {
		direct[id] = userUpdateEvent(p, e.prices, e.cfg.InitialCash)
	}
	e.mu.Unlock()

	for _, env := range outAll {
		e.sink.BroadcastAll(env)
	}
	for id, env := range direct {
		e.sink.SendTo(id, env)
	}

	log.Printf("round %s started: %d participants, %ds", roundID, len(direct), e.cfg.DurationSec)

	go e.tickLoop()
}

// maxTradeQty bounds a single trade. The wire path always sends 1; the
// bound keeps price*qty far away from int64 overflow for direct callers.
const maxTradeQty = 1000000

// RequestTrade validates and applies a buy or sell for one participant at
// the current tick's price. On any rejection the ledger is untouched and
// nothing is broadcast; the returned error is for callers and tests, the
// client simply sees no state change.
func (e *Engine) RequestTrade(id, action string, sym market.Symbol, qty int64) error {
	if qty <= 0 || qty > maxTradeQty {
		return fmt.Errorf("quantity out of range: %d", qty)
	}

	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return ErrInvalidState
	}
	if !e.sim.Knows(sym) {
		e.mu.Unlock()
		return ErrUnknownSymbol
	}
	p, ok := e.participants[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown participant %s", id)
	}

	price := e.prices[sym]
	var err error
	switch action {
	case "buy":
		err = p.Buy(sym, price, qty)
	case "sell":
		err = p.Sell(sym, price, qty)
	default:
		err = fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		e.mu.Unlock()
		return err
	}

	env := userUpdateEvent(p, e.prices, e.cfg.InitialCash)
	e.mu.Unlock()

	e.sink.SendTo(id, env)
	return nil
}

// Snapshot is the REST view of the room.
type Snapshot struct {
	State        string                  `json:"state"`
	TimeLeft     int                     `json:"time_left"`
	Prices       map[market.Symbol]int64 `json:"prices"`
	Changes      map[market.Symbol]int64 `json:"changes"`
	Participants int                     `json:"participants"`
}

// CurrentSnapshot returns a consistent view of the room for polling
// clients.
func (e *Engine) CurrentSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:        e.state.String(),
		TimeLeft:     e.clock.Remaining(),
		Prices:       e.prices,
		Changes:      e.changes,
		Participants: len(e.participants),
	}
}

// Stop halts the tick loop for process shutdown. Idempotent.
func (e *Engine) Stop() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// tickLoop drives the per-second simulation for one round and exits when
// the round ends or the engine is stopped.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if e.safeTick() {
				return
			}
		case <-e.quit:
			return
		}
	}
}

// safeTick runs one tick and swallows panics: whatever goes wrong while
// processing a tick, the round timer keeps advancing on the next one. The
// locked region inside releases the mutex by defer, so a recovered panic
// can never leave the engine locked.
func (e *Engine) safeTick() (done bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tick panic recovered: %v", r)
		}
	}()
	return e.onTick()
}

// tickOutcome carries one tick's results out of the locked region so
// delivery and callbacks happen with the mutex released.
type tickOutcome struct {
	done       bool
	broadcast  []Envelope
	direct     map[string]Envelope
	roundID    string
	started    time.Time
	ended      time.Time
	results    []RoundResult
	onRoundEnd func(string, time.Time, time.Time, []RoundResult)
}

// onTick advances the game by one second and delivers whatever the tick
// produced. Returns true when the round is over and the loop should exit.
func (e *Engine) onTick() bool {
	out := e.advance()

	for _, env := range out.broadcast {
		e.sink.BroadcastAll(env)
	}
	for id, env := range out.direct {
		e.sink.SendTo(id, env)
	}

	if out.done && out.results != nil {
		log.Printf("round %s ended: %d participants", out.roundID, len(out.results))
		if out.onRoundEnd != nil {
			out.onRoundEnd(out.roundID, out.started, out.ended, out.results)
		}
	}
	return out.done
}

// advance moves prices and the clock one second forward under the lock.
func (e *Engine) advance() tickOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return tickOutcome{done: true}
	}

	e.prices, e.changes = e.sim.NextTick(e.prices)
	finished := e.clock.Tick()

	if !finished {
		return tickOutcome{
			broadcast: []Envelope{updateDataEvent(e.clock.Remaining(), e.prices, e.changes)},
		}
	}

	// Round over: liquidate everyone at the final prices so balances are
	// comparable, then tell each participant their own result.
	e.state = StateEnded
	out := tickOutcome{
		done:       true,
		roundID:    e.roundID,
		started:    e.started,
		ended:      time.Now(),
		results:    make([]RoundResult, 0, len(e.participants)),
		direct:     make(map[string]Envelope, len(e.participants)),
		onRoundEnd: e.onRoundEnd,
	}
	for id, p := range e.participants {
		p.Liquidate(e.prices)
		profit := p.Cash - e.cfg.InitialCash
		out.results = append(out.results, RoundResult{
			ParticipantID: id,
			FinalBalance:  p.Cash,
			Profit:        profit,
		})
		out.direct[id] = gameOverEvent(p.Cash, profit)
	}
	rankResults(out.results)
	return out
}

// rankResults orders results by profit descending and assigns ranks.
func rankResults(results []RoundResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Profit > results[j].Profit
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func zeroChanges(sim *market.Simulator) map[market.Symbol]int64 {
	changes := make(map[market.Symbol]int64)
	for _, sym := range sim.Symbols() {
		changes[sym] = 0
	}
	return changes
}
