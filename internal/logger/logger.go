package logger

import (
	"go.uber.org/zap"
)

var Logger *zap.Logger

// InitLogger builds the process-wide logger. Production gets JSON output,
// everything else the console encoder.
func InitLogger(production bool) (*zap.Logger, error) {
	var err error
	if production {
		Logger, err = zap.NewProduction()
	} else {
		Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	Logger = Logger.With(zap.String("service", "usermgr"))
	zap.ReplaceGlobals(Logger)
	return Logger, nil
}
