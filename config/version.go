package config

// Version is overridden at build time with -ldflags "-X engagebot/config.Version=..."
var Version = "dev"
