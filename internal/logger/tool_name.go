package logger

// ToolName is the fixed name of this tool; log files are named after it.
const ToolName = "sapling-unit"

// CurrentToolName returns the tool name used in banners and usage lines.
func CurrentToolName() string { return ToolName }

// LogPrefixes returns the log file name prefixes to look for during cleanup.
func LogPrefixes() []string { return []string{ToolName} }

// PrimaryLogPrefix returns the filename prefix for new log files.
func PrimaryLogPrefix() string { return ToolName }
