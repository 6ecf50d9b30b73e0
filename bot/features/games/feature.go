package games

import (
	"context"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/models"
	"engagebot/service"
)

// Feature provides point games
type Feature struct {
	gambling *service.GamblingService
}

func New(gambling *service.GamblingService) *Feature {
	return &Feature{gambling: gambling}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("slots", f.handleSlots,
		"Play a slot machine game!\nArguments:\n`value`: The amount you wish to bet on the game.",
		models.TierGeneral)
}

func (f *Feature) handleSlots(ctx context.Context, req *command.Request) (string, error) {
	user, ok := req.User()
	if !ok {
		return "The console doesn't have a score.", nil
	}

	var value int64
	if fields := req.Fields(); len(fields) > 0 {
		value, _ = common.ParseAmount(fields[0])
	}

	result, err := f.gambling.PlaySlots(user, value)
	if err != nil {
		return "", err
	}
	return f.gambling.Render(result), nil
}
