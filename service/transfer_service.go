package service

import (
	"fmt"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// TransferService moves points between users
type TransferService struct {
	ledger Ledger
	unit   string
}

// NewTransferService creates a new transfer service
func NewTransferService(ledger Ledger, unit string) *TransferService {
	return &TransferService{ledger: ledger, unit: unit}
}

// Recipient is the target of a transfer. Tag is empty when the user is not
// known to the platform, in which case they must already have a score.
type Recipient struct {
	ID      string
	Mention string
	Tag     string
}

// Transfer moves amount points from the sender to the recipient
func (s *TransferService) Transfer(from models.PlatformUser, to Recipient, amount int64) (string, error) {
	if amount <= 0 {
		return "", NewInputError("You can't give fewer than 1 %s!", s.unit)
	}
	if from.ID == to.ID {
		return "", NewInputError("You can't give %s to yourself!", s.unit)
	}
	if _, ok := s.ledger.Get(from.ID); !ok || s.ledger.Score(from.ID) < amount {
		return "", NewInputError("You don't have enough %s to give that many!", s.unit)
	}
	if _, ok := s.ledger.Get(to.ID); !ok && to.Tag == "" {
		return "", NewInputError("That user doesn't have a score yet!")
	}

	s.ledger.CreditScore(from.ID, -amount, from.Tag)
	s.ledger.CreditScore(to.ID, amount, to.Tag)

	log.WithFields(log.Fields{
		"from_user_id": from.ID,
		"to_user_id":   to.ID,
		"amount":       amount,
	}).Info("Transfer completed")

	return fmt.Sprintf("Gave %d %s to %s", amount, s.unit, to.Mention), nil
}
