package version

// Version is the vishkar release.
const Version = "0.1.0"
