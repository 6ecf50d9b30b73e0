package admin

import (
	"context"
	"fmt"
	"strings"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/service"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) handlePrune(ctx context.Context, req *command.Request) (string, error) {
	fields := req.Fields()
	if len(fields) > 0 {
		id := fields[0]
		entry, ok := f.ledger.Get(id)
		if !ok {
			return "ID not found!", nil
		}
		f.ledger.Prune(id)
		log.Infof("Deleting %s from table with a score of %d %s!", entry.Tag, entry.Score, f.unit)
		return fmt.Sprintf("%s pruned!", id), nil
	}

	for _, entry := range f.ledger.PruneExpired(f.pruneAge) {
		log.Infof("Deleting %s from table with a score of %d %s!", entry.Tag, entry.Score, f.unit)
	}
	return "Table pruned!", nil
}

func (f *Feature) handleLog(ctx context.Context, req *command.Request) (string, error) {
	if req.Args == "" {
		return "", service.NewInputError("Available roots: %s", strings.Join(f.introspector.Roots(), ", "))
	}

	output, err := f.introspector.Lookup(req.Args)
	if err != nil {
		return "", err
	}
	if !req.IsConsole() && len(output) > maxLogOutput {
		output = "OUTPUT TOO LONG"
	}
	return common.JSONBlock(output, req.IsConsole()), nil
}

func (f *Feature) handleBlacklist(ctx context.Context, req *command.Request) (string, error) {
	fields := req.Fields()
	if len(fields) == 0 || fields[0] == "list" {
		ids := f.blacklist.List()
		if len(ids) == 0 {
			return "The blacklist is empty.", nil
		}
		return common.CodeBlock(strings.Join(ids, "\n"), req.IsConsole()), nil
	}
	if len(fields) < 2 {
		return "", service.NewInputError("Invalid Input!")
	}

	id := common.ParseMention(fields[1])
	switch fields[0] {
	case "add":
		if !f.blacklist.Add(id) {
			return fmt.Sprintf("%s is already blacklisted!", id), nil
		}
		log.WithField("user_id", id).Info("User blacklisted")
		return fmt.Sprintf("%s blacklisted!", id), nil
	case "remove":
		if !f.blacklist.Remove(id) {
			return fmt.Sprintf("%s is not blacklisted!", id), nil
		}
		log.WithField("user_id", id).Info("User removed from blacklist")
		return fmt.Sprintf("%s removed from the blacklist!", id), nil
	default:
		return "", service.NewInputError("Invalid Input!")
	}
}
