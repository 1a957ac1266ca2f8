// Package utils exposes reusable helpers consumed by the releasecut CLI.
//
// It houses ConfigurationLoader, which layers embedded defaults, an optional
// configuration file, and RELEASECUT_ environment variables through Viper,
// LoggerFactory, which builds zap loggers, and FlushingWriter, which keeps
// streamed build tool output visible as it arrives.
package utils
