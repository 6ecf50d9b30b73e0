package bidding

import (
	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/models"
	"engagebot/service"
)

// Feature exposes the bidding round commands
type Feature struct {
	engine    *service.BiddingEngine
	ledger    service.Ledger
	announcer common.Announcer
}

func New(engine *service.BiddingEngine, ledger service.Ledger, announcer common.Announcer) *Feature {
	return &Feature{
		engine:    engine,
		ledger:    ledger,
		announcer: announcer,
	}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("open-bidding", f.handleOpen,
		"Allow users to bid on data values.",
		models.TierAdmin)
	r.Register("close-bidding", f.handleClose,
		"Close bidding. Clear all users bids and deduct the winner's points",
		models.TierAdmin)
	r.Register("close-bidding-in", f.handleCloseIn,
		"Close bidding after a delay, with a countdown.\nArguments:\n`seconds`: How long to wait before closing.",
		models.TierAdmin)
	r.Register("clear-close-bidding", f.handleClearClose,
		"Clear all user bids and close bidding without deducting points",
		models.TierAdmin)
	r.Register("clear-bidding", f.handleClear,
		"Clear all user bids without deducting points.",
		models.TierAdmin)
	r.Register("top-bid", f.handleTopBid,
		"Get the current top bid.",
		models.TierGeneral)
	r.Register("bid", f.handleBid,
		"Place a bid or display your current bid if you pass in no arguments.\nArguments:\n`value`: The amount of points to bid.\n`data`: The data that you want your bid to return if it wins.",
		models.TierGeneral)
	r.Register("cancel-bid", f.handleCancel,
		"Clear your bid if one exists.",
		models.TierGeneral)
	r.Register("increase-bid", f.handleIncrease,
		"Increase your current bid.\nArguments:\n`value`: The amount of points to increase your bid by.",
		models.TierGeneral)
}
