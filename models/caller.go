package models

// Caller identifies who issued an event: a chat platform user or the local console operator.
type Caller interface {
	isCaller()
}

// PlatformUser is a user of the chat platform
type PlatformUser struct {
	ID  string
	Tag string
	Bot bool
}

// ConsoleOperator is the trusted local operator typing into the process console
type ConsoleOperator struct{}

func (PlatformUser) isCaller()    {}
func (ConsoleOperator) isCaller() {}

// IsConsole reports whether c is the console operator
func IsConsole(c Caller) bool {
	_, ok := c.(ConsoleOperator)
	return ok
}

// AsUser returns the platform user behind c, if any
func AsUser(c Caller) (PlatformUser, bool) {
	u, ok := c.(PlatformUser)
	return u, ok
}
