package scoring

import (
	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/config"
	"engagebot/models"
	"engagebot/service"
)

// Feature provides score inspection and adjustment commands
type Feature struct {
	ledger    service.Ledger
	scorer    *service.ActivityScorer
	directory common.Directory
	cfg       *config.Config
}

func New(ledger service.Ledger, scorer *service.ActivityScorer, directory common.Directory, cfg *config.Config) *Feature {
	return &Feature{
		ledger:    ledger,
		scorer:    scorer,
		directory: directory,
		cfg:       cfg,
	}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("score", f.handleScore,
		"Display your current score or the score of a user you mention.\nArguments:\n`user`: The user whose score you want to see. If this is omitted your score will be displayed.",
		models.TierGeneral)
	r.Register("add", f.handleAdd,
		"Add score to a user's total.\nArguments:\n`user`: The @ name of the user to alter.\n`score`: The value to add.",
		models.TierAdmin)
	r.Register("subtract", f.handleSubtract,
		"Subtract score from a user's total.\nArguments:\n`user`: The @ name of the user to alter.\n`score`: The value to subtract.",
		models.TierAdmin)
	r.Register("set", f.handleSet,
		"Set a user's total.\nArguments:\n`user`: The @ name of the user to alter.\n`score`: The value to set.",
		models.TierAdmin)
	r.Register("top", f.handleTop,
		"Display the top 10 users of this server.",
		models.TierGeneral)
	r.Register("bonus", f.handleBonus,
		"Display information about bonuses.",
		models.TierGeneral)
	r.Register("scoring", f.handleScoring,
		"Display a table of actions and their scores.",
		models.TierGeneral)
}
