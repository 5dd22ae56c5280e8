package types

// Version is the canonical project version. The CLI, the snapshot cache
// format, and the relay event contract share this version.
const Version = "0.3.0"
