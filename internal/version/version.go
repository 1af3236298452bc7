package version

// Current is the CLI release, without a "v" prefix.
const Current = "0.1.0"
