package command

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"engagebot/events"
	"engagebot/models"
	"engagebot/service"

	log "github.com/sirupsen/logrus"
)

// Command outcomes reported on CommandHandledEvent
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
	OutcomeUnknown    = "unknown"
	OutcomePermission = "permission"
)

// DispatcherConfig controls prefix handling and error display
type DispatcherConfig struct {
	Prefix                   string
	DisplayErrors            bool
	InvalidCommandMessage    string
	InvalidPermissionMessage string
}

// Call describes where a piece of text came from
type Call struct {
	Caller    models.Caller
	ChannelID string
	GuildID   string
	Guild     service.GuildContext
}

// Dispatcher turns text into command invocations
type Dispatcher struct {
	registry  *Registry
	resolver  *service.PermissionResolver
	publisher service.EventPublisher
	cfg       DispatcherConfig
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(registry *Registry, resolver *service.PermissionResolver, publisher service.EventPublisher, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		resolver:  resolver,
		publisher: publisher,
		cfg:       cfg,
	}
}

// IsCommand reports whether text would be treated as a command for the caller
func (d *Dispatcher) IsCommand(text string, caller models.Caller) bool {
	return models.IsConsole(caller) || strings.HasPrefix(text, d.cfg.Prefix)
}

// Parse splits command text into the command name and trimmed arguments
func (d *Dispatcher) Parse(text string) (name, args string) {
	text = strings.TrimPrefix(text, d.cfg.Prefix)
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// Handle runs the command in text, if any. handled is false when the text
// was not a command or the failure should be silent. An empty response with
// handled set means the command ran and produced no reply.
func (d *Dispatcher) Handle(ctx context.Context, text string, call Call) (response string, handled bool) {
	if !d.IsCommand(text, call.Caller) {
		return "", false
	}
	name, args := d.Parse(text)
	console := models.IsConsole(call.Caller)

	cmd, ok := d.registry.Lookup(name)
	if !ok {
		d.emit(ctx, name, 0, OutcomeUnknown)
		if d.cfg.DisplayErrors || console {
			return d.cfg.InvalidCommandMessage, true
		}
		return "", false
	}

	tier := d.resolver.Resolve(call.Caller, call.Guild)
	if !HasPermission(cmd, tier) {
		d.emit(ctx, name, tier, OutcomePermission)
		if d.cfg.DisplayErrors || console {
			return d.cfg.InvalidPermissionMessage, true
		}
		return "", false
	}

	d.logCommand(call, name, args, tier)

	req := &Request{
		Name:      name,
		Args:      args,
		Caller:    call.Caller,
		ChannelID: call.ChannelID,
		GuildID:   call.GuildID,
		Tier:      tier,
		Guild:     call.Guild,
	}
	response, outcome := d.invoke(ctx, cmd, req)
	d.emit(ctx, name, tier, outcome)
	return response, true
}

func (d *Dispatcher) invoke(ctx context.Context, cmd Command, req *Request) (response string, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"command": cmd.Name,
				"panic":   r,
			}).Error("Command handler panicked")
			response = fmt.Sprintf("Error: %v", r)
			outcome = OutcomeError
		}
	}()

	response, err := cmd.Handler(ctx, req)
	if err == nil {
		return response, OutcomeOK
	}

	if ue, ok := service.AsUserError(err); ok {
		return ue.Message, OutcomeRejected
	}

	log.WithFields(log.Fields{
		"command": cmd.Name,
		"error":   err,
	}).Error("Command failed")
	return "Error: " + err.Error(), OutcomeError
}

func (d *Dispatcher) logCommand(call Call, name, args string, tier models.PrivilegeTier) {
	who := "CONSOLE"
	if u, ok := models.AsUser(call.Caller); ok {
		who = u.Tag
	}
	marker := ""
	if tier >= models.TierAdmin {
		marker = " {ADMIN}"
	}
	log.WithFields(log.Fields{
		"command":    name,
		"channel_id": call.ChannelID,
		"tier":       tier.String(),
	}).Infof("%s%s: %s %s", who, marker, name, args)
}

func (d *Dispatcher) emit(ctx context.Context, name string, tier models.PrivilegeTier, outcome string) {
	if d.publisher == nil {
		return
	}
	d.publisher.Emit(ctx, events.CommandHandledEvent{
		Command: name,
		Tier:    tier.String(),
		Outcome: outcome,
	})
}
