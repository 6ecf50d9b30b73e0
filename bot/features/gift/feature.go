package gift

import (
	"context"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/models"
	"engagebot/service"
)

// Feature lets users give points to each other
type Feature struct {
	transfers *service.TransferService
	directory common.Directory
	unit      string
}

func New(transfers *service.TransferService, directory common.Directory, unit string) *Feature {
	return &Feature{
		transfers: transfers,
		directory: directory,
		unit:      unit,
	}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("give", f.handleGive,
		"Give a user points from your total.\nArguments:\n`user`: The @ name of the user to give points to.\n`value`: The number of points to give the mentioned user.",
		models.TierGeneral)
}

func (f *Feature) handleGive(ctx context.Context, req *command.Request) (string, error) {
	from, ok := req.User()
	if !ok {
		return "The console doesn't have a score.", nil
	}

	fields := req.Fields()
	if len(fields) < 2 {
		return "", service.NewInputError("Give a user points with `give @user value`")
	}
	amount, ok := common.ParseAmount(fields[1])
	if !ok {
		return "", service.NewInputError("You can't give fewer than 1 %s!", f.unit)
	}

	to := service.Recipient{
		ID:      common.ParseMention(fields[0]),
		Mention: fields[0],
	}
	if f.directory != nil {
		to.Tag, _ = f.directory.LookupUser(req.GuildID, to.ID)
	}
	return f.transfers.Transfer(from, to, amount)
}
