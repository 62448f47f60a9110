package game

import "stockgame/internal/market"

// Wire event names, shared with the frontend.
const (
	EventGameStarted = "game_started"
	EventUpdateData  = "update_data"
	EventUserUpdate  = "user_update"
	EventInitStatus  = "init_status"
	EventGameOver    = "game_over"
)

// Envelope is the outbound wire format: a named event plus its payload.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Sink receives outbound envelopes from the engine. Implementations must
// not block: delivery is fire-and-forget relative to state mutation. The
// WebSocket hub is the production implementation.
type Sink interface {
	// BroadcastAll delivers the envelope to every connected participant.
	BroadcastAll(env Envelope)
	// SendTo delivers the envelope to one participant, if still connected.
	SendTo(participantID string, env Envelope)
}

// UpdateData is the per-tick market broadcast.
type UpdateData struct {
	TimeLeft int                     `json:"time_left"`
	Prices   map[market.Symbol]int64 `json:"prices"`
	Changes  map[market.Symbol]int64 `json:"changes"`
}

// UserUpdate is the private ledger snapshot sent after a successful trade.
type UserUpdate struct {
	Cash     int64                   `json:"cash"`
	Holdings map[market.Symbol]int64 `json:"holdings"`
	Profit   int64                   `json:"profit"`
}

// InitStatus is sent once to a newly connected participant.
type InitStatus struct {
	Cash     int64                   `json:"cash"`
	Holdings map[market.Symbol]int64 `json:"holdings"`
	Prices   map[market.Symbol]int64 `json:"prices"`
	IsActive bool                    `json:"is_active"`
}

// GameOver carries one participant's final result at round end.
type GameOver struct {
	FinalBalance int64 `json:"final_balance"`
	Profit       int64 `json:"profit"`
}

func gameStartedEvent() Envelope {
	return Envelope{Type: EventGameStarted}
}

func updateDataEvent(timeLeft int, prices, changes map[market.Symbol]int64) Envelope {
	return Envelope{Type: EventUpdateData, Data: UpdateData{
		TimeLeft: timeLeft,
		Prices:   prices,
		Changes:  changes,
	}}
}

func userUpdateEvent(p *Participant, prices map[market.Symbol]int64, initialCash int64) Envelope {
	return Envelope{Type: EventUserUpdate, Data: UserUpdate{
		Cash:     p.Cash,
		Holdings: copyHoldings(p.Holdings),
		Profit:   p.Profit(prices, initialCash),
	}}
}

func initStatusEvent(p *Participant, prices map[market.Symbol]int64, active bool) Envelope {
	return Envelope{Type: EventInitStatus, Data: InitStatus{
		Cash:     p.Cash,
		Holdings: copyHoldings(p.Holdings),
		Prices:   prices,
		IsActive: active,
	}}
}

func gameOverEvent(finalBalance, profit int64) Envelope {
	return Envelope{Type: EventGameOver, Data: GameOver{
		FinalBalance: finalBalance,
		Profit:       profit,
	}}
}

// copyHoldings snapshots a holdings map so an envelope marshalled after the
// engine lock is released never races a later trade.
func copyHoldings(h map[market.Symbol]int64) map[market.Symbol]int64 {
	out := make(map[market.Symbol]int64, len(h))
	for sym, qty := range h {
		out[sym] = qty
	}
	return out
}
