package service

import (
	"context"
	"fmt"
	"time"

	"engagebot/config"
	"engagebot/events"
	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// Bidding round states
const (
	BiddingClosed = "closed"
	BiddingOpen   = "open"
)

// CountdownStep is the spacing of countdown reminders before a scheduled close
const CountdownStep = 5 * time.Second

// Notifier delivers messages produced by scheduled bidding events
type Notifier func(message string)

// BiddingEngine runs the bidding round state machine. Bids live in the
// ledger's "bid" inventory slot; the engine owns only the open flag and the
// pending close schedule. Like the ledger it is confined to the event loop.
type BiddingEngine struct {
	ledger    Ledger
	scheduler Scheduler
	publisher EventPublisher
	unit      string

	open      bool
	closer    events.Timer
	countdown events.Timer
	// lastStamp is the newest bid placement time handed out; stamps
	// strictly increase so ties always resolve by placement order.
	lastStamp time.Time
}

// NewBiddingEngine creates a closed bidding engine
func NewBiddingEngine(ledger Ledger, scheduler Scheduler, publisher EventPublisher, unit string) *BiddingEngine {
	return &BiddingEngine{
		ledger:    ledger,
		scheduler: scheduler,
		publisher: publisher,
		unit:      unit,
	}
}

// IsOpen reports whether a round is in progress
func (e *BiddingEngine) IsOpen() bool {
	return e.open
}

// State returns the current state name
func (e *BiddingEngine) State() string {
	if e.open {
		return BiddingOpen
	}
	return BiddingClosed
}

// HasPendingClose reports whether a delayed close is scheduled
func (e *BiddingEngine) HasPendingClose() bool {
	return e.closer != nil
}

// Open starts a bidding round
func (e *BiddingEngine) Open() (string, error) {
	if e.open {
		return "", NewStateError("Bidding is already open!")
	}
	e.transition(true, "", 0)
	return "Bidding has begun!", nil
}

// PlaceBid stores a bid for userID, replacing any previous bid.
// The value must be positive and no more than the user's score.
func (e *BiddingEngine) PlaceBid(userID string, value int64, data string) (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	score := e.ledger.Score(userID)
	if value <= 0 || value > score {
		return "", NewInputError("You can't bid more than %d %s or less than 1 %s", score, e.unit, e.unit)
	}

	bid := models.Bid{Value: value, Data: data, PlacedAt: e.stamp()}
	ok, err := e.ledger.SetSlot(userID, models.SlotBid, bid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", NewInputError("You can't bid more than %d %s or less than 1 %s", score, e.unit, e.unit)
	}

	e.emitBid(userID, value)
	return bidMessage(bid, e.unit), nil
}

// CurrentBid describes the caller's active bid
func (e *BiddingEngine) CurrentBid(userID string) (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	bid, ok := e.bidOf(userID)
	if !ok {
		return "", NewStateError("You have no active bids")
	}
	return bidMessage(bid, e.unit), nil
}

// IncreaseBid raises an existing bid by delta. The new total must stay
// positive and within the user's score; rejected increases change nothing.
func (e *BiddingEngine) IncreaseBid(userID string, delta int64) (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	bid, ok := e.bidOf(userID)
	if !ok {
		return "", NewStateError("You must place a bid before increasing it")
	}

	total := bid.Value + delta
	if total <= 0 || total > e.ledger.Score(userID) {
		return "", NewInputError("Cannot increase bid by %d %s", delta, e.unit)
	}

	bid.Value = total
	bid.PlacedAt = e.stamp()
	if _, err := e.ledger.SetSlot(userID, models.SlotBid, bid); err != nil {
		return "", err
	}

	e.emitBid(userID, total)
	return fmt.Sprintf("Increased bid by %d %s", delta, e.unit), nil
}

// CancelBid removes the caller's bid
func (e *BiddingEngine) CancelBid(userID string) (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	bid, ok := e.bidOf(userID)
	if !ok {
		return "", NewStateError("You don't have a bid to clear!")
	}
	e.ledger.ClearSlot(userID, models.SlotBid)
	return fmt.Sprintf("Cleared your bid of %d %s on \"%s\"", bid.Value, e.unit, bid.Data), nil
}

// TopBid returns the winning bid so far: highest value, earliest placement on ties
func (e *BiddingEngine) TopBid() (models.OwnedBid, bool) {
	var top models.OwnedBid
	found := false
	e.ledger.EachWithSlot(models.SlotBid, func(entry models.LedgerEntry) {
		bid, ok := entry.Inventory.Bid()
		if !ok {
			return
		}
		candidate := models.OwnedBid{UserID: entry.ID, Tag: entry.Tag, Bid: bid}
		if !found || candidate.Outbids(top) {
			top = candidate
			found = true
		}
	})
	return top, found
}

// DescribeTopBid renders the current top bid
func (e *BiddingEngine) DescribeTopBid() (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	top, ok := e.TopBid()
	if !ok {
		return "No bids have been placed!", nil
	}
	return fmt.Sprintf("The top bidder is %s with %d %s on \"%s\"!", top.Tag, top.Bid.Value, e.unit, top.Bid.Data), nil
}

// Close ends the round. The top bidder pays their bid and every bid is cleared.
func (e *BiddingEngine) Close() (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	e.cancelSchedule()

	top, found := e.TopBid()
	e.clearBids()
	if !found {
		e.transition(false, "", 0)
		return "No bids have been placed!", nil
	}

	e.ledger.CreditScore(top.UserID, -top.Bid.Value, "")
	e.transition(false, top.UserID, top.Bid.Value)

	log.WithFields(log.Fields{
		"user_id": top.UserID,
		"amount":  top.Bid.Value,
	}).Info("Bidding closed with a winner")

	return fmt.Sprintf("%s won with %d %s on \"%s\"!", top.Tag, top.Bid.Value, e.unit, top.Bid.Data), nil
}

// CloseAfter schedules Close to run once after delay. Countdown reminders are
// sent to notify every CountdownStep of remaining time, followed by the
// result of the close. Scheduling again replaces the previous schedule; a
// manual Close or ClearAndClose cancels it. At most two timers are pending:
// the close itself and the next reminder.
func (e *BiddingEngine) CloseAfter(delay time.Duration, notify Notifier) (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	if !config.IsValidInterval(delay) {
		return "", NewInputError("Invalid Input!")
	}
	e.cancelSchedule()

	first := delay - delay%CountdownStep
	if first == delay {
		first -= CountdownStep
	}
	if first > 0 {
		e.countdown = e.scheduler.AfterFunc(delay-first, e.remind(first, notify))
	}

	e.closer = e.scheduler.AfterFunc(delay, func(ctx context.Context) {
		e.closer = nil
		msg, err := e.Close()
		if err != nil {
			msg = err.Error()
		}
		notify(msg)
	})

	return fmt.Sprintf("Bidding will close in %d seconds!", int64(delay/time.Second)), nil
}

// remind announces the remaining time and schedules the following reminder
func (e *BiddingEngine) remind(remaining time.Duration, notify Notifier) events.Task {
	return func(ctx context.Context) {
		e.countdown = nil
		notify(fmt.Sprintf("Bidding closes in %d seconds!", int64(remaining/time.Second)))
		if next := remaining - CountdownStep; next > 0 {
			e.countdown = e.scheduler.AfterFunc(CountdownStep, e.remind(next, notify))
		}
	}
}

// Clear removes every bid without charging anyone
func (e *BiddingEngine) Clear() (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	e.clearBids()
	return "All bids have been cleared!", nil
}

// ClearAndClose removes every bid and closes the round
func (e *BiddingEngine) ClearAndClose() (string, error) {
	if !e.open {
		return "", errBiddingNotOpen()
	}
	e.cancelSchedule()
	e.clearBids()
	e.transition(false, "", 0)
	return "All bids have been cleared and bidding is now closed!", nil
}

// Status summarizes the engine for introspection
func (e *BiddingEngine) Status() map[string]any {
	status := map[string]any{
		"state":        e.State(),
		"pendingClose": e.HasPendingClose(),
	}
	if top, ok := e.TopBid(); ok {
		status["topBid"] = map[string]any{
			"user":  top.Tag,
			"value": top.Bid.Value,
			"data":  top.Bid.Data,
		}
	}
	return status
}

func (e *BiddingEngine) bidOf(userID string) (models.Bid, bool) {
	entry, ok := e.ledger.Get(userID)
	if !ok {
		return models.Bid{}, false
	}
	return entry.Inventory.Bid()
}

func (e *BiddingEngine) clearBids() {
	var ids []string
	e.ledger.EachWithSlot(models.SlotBid, func(entry models.LedgerEntry) {
		ids = append(ids, entry.ID)
	})
	for _, id := range ids {
		e.ledger.ClearSlot(id, models.SlotBid)
	}
}

func (e *BiddingEngine) cancelSchedule() {
	if e.closer != nil {
		e.closer.Stop()
		e.closer = nil
	}
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
}

// stamp returns a placement time later than every bid placed so far
func (e *BiddingEngine) stamp() time.Time {
	if e.lastStamp.IsZero() {
		e.ledger.EachWithSlot(models.SlotBid, func(entry models.LedgerEntry) {
			if bid, ok := entry.Inventory.Bid(); ok && bid.PlacedAt.After(e.lastStamp) {
				e.lastStamp = bid.PlacedAt
			}
		})
	}
	now := e.ledger.Now()
	if !now.After(e.lastStamp) {
		now = e.lastStamp.Add(time.Millisecond)
	}
	e.lastStamp = now
	return now
}

func (e *BiddingEngine) transition(open bool, winnerID string, amount int64) {
	old := e.State()
	e.open = open
	if e.publisher == nil {
		return
	}
	e.publisher.Emit(context.Background(), events.BiddingStateChangeEvent{
		OldState: old,
		NewState: e.State(),
		WinnerID: winnerID,
		Amount:   amount,
	})
}

func (e *BiddingEngine) emitBid(userID string, amount int64) {
	if e.publisher == nil {
		return
	}
	e.publisher.Emit(context.Background(), events.BidPlacedEvent{UserID: userID, Amount: amount})
}

func errBiddingNotOpen() *UserError {
	return NewStateError("Bidding is not open yet!")
}

func bidMessage(bid models.Bid, unit string) string {
	return fmt.Sprintf("You bid %d %s on \"%s\"", bid.Value, unit, bid.Data)
}
