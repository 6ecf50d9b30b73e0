package service

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"engagebot/config"
	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// SlotsResult is the outcome of one slot machine spin
type SlotsResult struct {
	Reels   []string
	Matches int
	Won     bool
	Payout  int64 // amount credited back on a win
	Bet     int64
}

// GamblingService runs the slot machine game
type GamblingService struct {
	ledger Ledger
	slots  config.Slots
	unit   string
	intn   func(n int) int
}

// NewGamblingService creates a new gambling service. A nil intn uses math/rand.
func NewGamblingService(ledger Ledger, slots config.Slots, unit string, intn func(n int) int) *GamblingService {
	if intn == nil {
		intn = rand.Intn
	}
	return &GamblingService{ledger: ledger, slots: slots, unit: unit, intn: intn}
}

// PlaySlots bets value points on a spin. Each adjacent pair of equal reels is
// a match; any match pays back the bet times (1 + matches * factor).
func (s *GamblingService) PlaySlots(user models.PlatformUser, value int64) (*SlotsResult, error) {
	if value <= 0 {
		return nil, NewInputError("You must bet at least 1 %s!", s.unit)
	}
	if _, ok := s.ledger.Get(user.ID); !ok || value > s.ledger.Score(user.ID) {
		return nil, NewInputError("You do not have enough to bet %d %s!", value, s.unit)
	}

	s.ledger.CreditScore(user.ID, -value, user.Tag)

	indexes := make([]int, s.slots.WheelCount)
	reels := make([]string, s.slots.WheelCount)
	for i := range indexes {
		indexes[i] = s.intn(len(s.slots.Wheel))
		reels[i] = s.slots.Wheel[indexes[i]]
	}

	matches := 0
	for i := 1; i < len(indexes); i++ {
		if indexes[i] == indexes[i-1] {
			matches++
		}
	}

	result := &SlotsResult{Reels: reels, Matches: matches, Bet: value}
	if matches > 0 {
		payout := float64(value) * (1 + float64(matches)*s.slots.ScoreFactor)
		result.Won = true
		result.Payout = int64(math.Trunc(payout))
		s.ledger.CreditScore(user.ID, result.Payout, user.Tag)
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"bet":     value,
		"matches": matches,
		"payout":  result.Payout,
	}).Info("Slots played")

	return result, nil
}

// Render formats a result the way the slots command prints it
func (s *GamblingService) Render(r *SlotsResult) string {
	var b strings.Builder
	b.WriteString("\nRESULTS:\n\n")
	for _, reel := range r.Reels {
		b.WriteString(reel)
		b.WriteString("    ")
	}
	b.WriteString("\n\n")
	if r.Won {
		fmt.Fprintf(&b, "You won %d %s!", r.Payout, s.unit)
	} else {
		fmt.Fprintf(&b, "You lost %d %s!", r.Bet, s.unit)
	}
	return b.String()
}
