package config

import "go.uber.org/zap"

// NewLogger builds the process logger from LoggingConfig, following the
// teacher's level/format switch (`OptimizedConfig.GetLogger`) rather than
// hardcoding a single zap preset.
func (c *LoggingConfig) NewLogger() (*zap.Logger, error) {
	var zc zap.Config
	if c.Output == "stdout" || c.Output == "" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	switch c.Level {
	case "debug":
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if c.Format == "console" {
		zc.Encoding = "console"
	} else {
		zc.Encoding = "json"
	}

	zc.DisableCaller = !c.EnableCaller
	zc.DisableStacktrace = !c.EnableStacktrace

	if c.Output != "" && c.Output != "stdout" {
		zc.OutputPaths = []string{c.Output}
		zc.ErrorOutputPaths = []string{c.Output}
	}

	return zc.Build()
}
