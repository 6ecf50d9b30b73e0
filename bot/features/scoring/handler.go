package scoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/config"
	"engagebot/service"

	log "github.com/sirupsen/logrus"
)

const leaderboardSize = 10

func (f *Feature) handleScore(ctx context.Context, req *command.Request) (string, error) {
	fields := req.Fields()
	if len(fields) > 0 {
		id := common.ParseMention(fields[0])
		entry, ok := f.ledger.Get(id)
		if !ok {
			return "That user wasn't found or doesn't have a score yet!", nil
		}
		return fmt.Sprintf("%s has %d %s", entry.Tag, entry.Score, f.cfg.Unit), nil
	}

	user, ok := req.User()
	if !ok {
		return "The console doesn't have a score.", nil
	}
	return fmt.Sprintf("You currently have %d %s", f.ledger.Score(user.ID), f.cfg.Unit), nil
}

// target resolves the user and amount arguments shared by add, subtract and set
func (f *Feature) target(req *command.Request) (id, tag string, amount int64, ok bool) {
	fields := req.Fields()
	if len(fields) < 2 {
		return "", "", 0, false
	}
	id = common.ParseMention(fields[0])
	amount, ok = common.ParseAmount(fields[1])
	if !ok || id == "" {
		return "", "", 0, false
	}

	if f.directory != nil {
		if t, known := f.directory.LookupUser(req.GuildID, id); known {
			return id, t, amount, true
		}
	}
	if entry, exists := f.ledger.Get(id); exists {
		return id, entry.Tag, amount, true
	}
	return "", "", 0, false
}

func (f *Feature) handleAdd(ctx context.Context, req *command.Request) (string, error) {
	id, tag, amount, ok := f.target(req)
	if !ok {
		return "", service.NewInputError("Can't add %s to that user!", f.cfg.Unit)
	}
	f.ledger.CreditScore(id, amount, tag)
	f.logAdjustment(req, "add", id, amount)
	return fmt.Sprintf("added %d %s to %s", amount, f.cfg.Unit, f.tagOf(id)), nil
}

func (f *Feature) handleSubtract(ctx context.Context, req *command.Request) (string, error) {
	id, tag, amount, ok := f.target(req)
	if !ok {
		return "", service.NewInputError("Can't subtract %s from that user!", f.cfg.Unit)
	}
	f.ledger.CreditScore(id, -amount, tag)
	f.logAdjustment(req, "subtract", id, amount)
	return fmt.Sprintf("subtracted %d %s from %s", amount, f.cfg.Unit, f.tagOf(id)), nil
}

func (f *Feature) handleSet(ctx context.Context, req *command.Request) (string, error) {
	id, tag, amount, ok := f.target(req)
	if !ok {
		return "", service.NewInputError("Can't set %s for that user!", f.cfg.Unit)
	}
	value := f.ledger.SetScore(id, amount, tag)
	f.logAdjustment(req, "set", id, amount)
	return fmt.Sprintf("set %s's %s to %d", f.tagOf(id), f.cfg.Unit, value), nil
}

func (f *Feature) handleTop(ctx context.Context, req *command.Request) (string, error) {
	top := f.ledger.TopN(leaderboardSize)
	if len(top) == 0 {
		return "No scores yet!", nil
	}

	var b strings.Builder
	b.WriteString("\nTOP USERS:\n")
	for i, entry := range top {
		fmt.Fprintf(&b, "%d. %s : %d %s\n", i+1, entry.Tag, entry.Score, f.cfg.Unit)
	}
	return common.CodeBlock(b.String(), req.IsConsole()), nil
}

func (f *Feature) handleBonus(ctx context.Context, req *command.Request) (string, error) {
	rules := f.scorer.Rules()
	user, ok := req.User()
	if !ok {
		return fmt.Sprintf("The bonus is %d %s.\nYou may earn it every %dms.",
			rules.Bonus, f.cfg.Unit, rules.BonusInterval.Milliseconds()), nil
	}

	last, next, ok := f.scorer.NextBonus(user.ID)
	if !ok {
		return "You have not yet earned a bonus!", nil
	}
	return fmt.Sprintf("The bonus is %d %s.\nYou received your last bonus at %s!\nYou may earn another bonus at %s!",
		rules.Bonus, f.cfg.Unit, last.UTC().Format(http.TimeFormat), next.UTC().Format(http.TimeFormat)), nil
}

func (f *Feature) handleScoring(ctx context.Context, req *command.Request) (string, error) {
	var b strings.Builder
	for _, row := range f.cfg.ScoringTable() {
		switch {
		case !row.HasInterval:
			fmt.Fprintf(&b, "%s: %d %s\n", row.Name, row.Points, f.cfg.Unit)
		case config.IsValidInterval(row.Interval):
			fmt.Fprintf(&b, "%s: %d %s / %dms\n", row.Name, row.Points, f.cfg.Unit, row.Interval.Milliseconds())
		default:
			fmt.Fprintf(&b, "%s: %d %s [INTERVAL DISABLED]\n", row.Name, row.Points, f.cfg.Unit)
		}
	}
	return common.CodeBlock(b.String(), req.IsConsole()), nil
}

func (f *Feature) tagOf(id string) string {
	if entry, ok := f.ledger.Get(id); ok {
		return entry.Tag
	}
	return id
}

func (f *Feature) logAdjustment(req *command.Request, action, id string, amount int64) {
	log.WithFields(log.Fields{
		"action":  action,
		"user_id": id,
		"amount":  amount,
		"tier":    req.Tier.String(),
	}).Info("Score adjusted by command")
}
