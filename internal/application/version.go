package application

// Version is the release version, overridden at build time with
// -ldflags "-X dmt/internal/application.Version=..."
var Version = "0.4.0"
