package service

import (
	"time"

	"engagebot/config"
	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// ActivityKind is a kind of user activity that earns points
type ActivityKind string

const (
	ActivityMessage  ActivityKind = "message"
	ActivityTyping   ActivityKind = "typing"
	ActivitySpeaking ActivityKind = "speaking"
)

// ScoringRules are the point values used by the ActivityScorer
type ScoringRules struct {
	Message       int64
	Typing        int64
	Speaking      int64
	Bonus         int64
	BonusInterval time.Duration
}

// RulesFromConfig builds scoring rules from the bot configuration
func RulesFromConfig(cfg *config.Config) ScoringRules {
	return ScoringRules{
		Message:       cfg.Scoring.Message,
		Typing:        cfg.Scoring.Typing,
		Speaking:      cfg.Scoring.Speaking,
		Bonus:         cfg.Scoring.Bonus,
		BonusInterval: cfg.Intervals.Bonus,
	}
}

func (r ScoringRules) points(kind ActivityKind) int64 {
	switch kind {
	case ActivityMessage:
		return r.Message
	case ActivityTyping:
		return r.Typing
	case ActivitySpeaking:
		return r.Speaking
	default:
		return 0
	}
}

// BonusEnabled reports whether bonuses can be granted at all
func (r ScoringRules) BonusEnabled() bool {
	return r.Bonus != 0 && config.IsValidInterval(r.BonusInterval)
}

// ActivityScorer credits users for activity and grants periodic bonuses
type ActivityScorer struct {
	ledger Ledger
	rules  ScoringRules
}

// NewActivityScorer creates a scorer with the given rules
func NewActivityScorer(ledger Ledger, rules ScoringRules) *ActivityScorer {
	return &ActivityScorer{ledger: ledger, rules: rules}
}

// Rules returns the scoring rules in use
func (s *ActivityScorer) Rules() ScoringRules {
	return s.rules
}

// Score credits user for one activity. Bots and kinds worth zero points are
// ignored. The activity credit lands before the bonus check. It reports
// whether the user was credited.
func (s *ActivityScorer) Score(user models.PlatformUser, kind ActivityKind) bool {
	if user.Bot {
		return false
	}
	points := s.rules.points(kind)
	if points == 0 {
		return false
	}

	s.ledger.CreditScore(user.ID, points, user.Tag)
	log.WithFields(log.Fields{
		"user_id": user.ID,
		"kind":    kind,
		"amount":  points,
	}).Debugf("%s's score increased by %d", user.Tag, points)

	s.applyBonus(user)
	return true
}

// BonusDue reports whether the user would receive a bonus on their next activity
func (s *ActivityScorer) BonusDue(userID string) bool {
	entry, ok := s.ledger.Get(userID)
	if !ok {
		return true
	}
	last, ok := entry.Inventory.BonusAt()
	if !ok {
		return true
	}
	return s.ledger.Now().After(last.Add(s.rules.BonusInterval))
}

// NextBonus returns when the user can next earn a bonus
func (s *ActivityScorer) NextBonus(userID string) (last, next time.Time, ok bool) {
	entry, found := s.ledger.Get(userID)
	if !found {
		return time.Time{}, time.Time{}, false
	}
	last, ok = entry.Inventory.BonusAt()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return last, last.Add(s.rules.BonusInterval), true
}

func (s *ActivityScorer) applyBonus(user models.PlatformUser) {
	if !s.rules.BonusEnabled() || !s.BonusDue(user.ID) {
		return
	}

	s.ledger.CreditScore(user.ID, s.rules.Bonus, user.Tag)
	if _, err := s.ledger.SetSlot(user.ID, models.SlotBonus, s.ledger.Now().UnixMilli()); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to stamp bonus")
		return
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"amount":  s.rules.Bonus,
	}).Infof("BONUS: %s's score increased by %d", user.Tag, s.rules.Bonus)
}
