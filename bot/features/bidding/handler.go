package bidding

import (
	"context"
	"strconv"
	"strings"
	"time"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/config"
	"engagebot/service"
)

var errConsoleBid = service.NewPermissionError("You can't bid from the console!")

func (f *Feature) handleOpen(ctx context.Context, req *command.Request) (string, error) {
	return f.engine.Open()
}

func (f *Feature) handleClose(ctx context.Context, req *command.Request) (string, error) {
	return f.engine.Close()
}

func (f *Feature) handleClearClose(ctx context.Context, req *command.Request) (string, error) {
	return f.engine.ClearAndClose()
}

func (f *Feature) handleClear(ctx context.Context, req *command.Request) (string, error) {
	return f.engine.Clear()
}

func (f *Feature) handleTopBid(ctx context.Context, req *command.Request) (string, error) {
	return f.engine.DescribeTopBid()
}

func (f *Feature) handleCloseIn(ctx context.Context, req *command.Request) (string, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(req.Args), 10, 64)
	if err != nil || seconds <= 0 || seconds > config.MaxInterval/1000 {
		return "", service.NewInputError("Invalid Input!")
	}

	channelID, console := req.ChannelID, req.IsConsole()
	return f.engine.CloseAfter(time.Duration(seconds)*time.Second, func(message string) {
		if f.announcer != nil {
			f.announcer.Announce(channelID, console, message)
		}
	})
}

func (f *Feature) handleBid(ctx context.Context, req *command.Request) (string, error) {
	user, ok := req.User()
	if !ok {
		return "", errConsoleBid
	}
	if !f.engine.IsOpen() {
		return f.engine.CurrentBid(user.ID)
	}

	value, data, ok := splitBid(req.Args)
	if !ok {
		return f.engine.CurrentBid(user.ID)
	}
	return f.engine.PlaceBid(user.ID, value, data)
}

func (f *Feature) handleCancel(ctx context.Context, req *command.Request) (string, error) {
	user, ok := req.User()
	if !ok {
		return "", errConsoleBid
	}
	return f.engine.CancelBid(user.ID)
}

func (f *Feature) handleIncrease(ctx context.Context, req *command.Request) (string, error) {
	user, ok := req.User()
	if !ok {
		return "", errConsoleBid
	}
	if !f.engine.IsOpen() {
		return f.engine.IncreaseBid(user.ID, 0)
	}

	fields := req.Fields()
	if len(fields) == 0 {
		return "", service.NewInputError("Invalid Input!")
	}
	if _, exists := f.ledger.Get(user.ID); !exists {
		return "", service.NewStateError("You must have a score and a bid before increasing!")
	}
	delta, ok := common.ParseAmount(fields[0])
	if !ok {
		return "", service.NewInputError("Invalid Input!")
	}
	return f.engine.IncreaseBid(user.ID, delta)
}

// splitBid reads "<value> <data...>". Both parts are required; an
// unparseable value becomes 0 so the engine rejects it with the bounds message.
func splitBid(args string) (int64, string, bool) {
	value, data, found := strings.Cut(strings.TrimSpace(args), " ")
	data = strings.TrimSpace(data)
	if !found || data == "" {
		return 0, "", false
	}
	amount, _ := common.ParseAmount(value)
	return amount, data, true
}
