package command

import (
	"sort"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// Registry maps command names to commands
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. A later registration for the same name replaces the earlier one.
func (r *Registry) Register(name string, handler HandlerFunc, help string, minTier models.PrivilegeTier) {
	if minTier < models.TierGeneral || minTier > models.TierConsole {
		minTier = models.TierConsole
	}
	if _, exists := r.commands[name]; exists {
		log.WithField("command", name).Debug("Overriding registered command")
	}
	r.commands[name] = Command{
		Name:    name,
		Help:    help,
		MinTier: minTier,
		Handler: handler,
	}
}

// RegisterModules registers every module in order
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Lookup returns the command registered under name
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns every command sorted by name
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands
func (r *Registry) Len() int {
	return len(r.commands)
}

// HasPermission reports whether tier may run cmd
func HasPermission(cmd Command, tier models.PrivilegeTier) bool {
	return tier.Allows(cmd.MinTier)
}
