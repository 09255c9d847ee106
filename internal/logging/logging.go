package logging

import "go.uber.org/zap"

// Logger wraps zap's sugared logger.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds a production JSON logger, at debug level when
// verbose is set.
func NewLogger(verbose bool) *Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return NewNop()
	}
	return &Logger{SugaredLogger: logger.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
