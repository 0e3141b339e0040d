package version

// Version is the restic-browser release. Release builds override it with
// -ldflags "-X restic-browser/src/version.Version=<tag>".
var Version = "0.3.0-dev"
