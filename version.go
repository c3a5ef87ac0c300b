package vibe

// Version is the engine release version, overridable at build time via
// -ldflags "-X".
var Version = "0.1.0"
