// Package logger provides structured logging for linkharvest on top of zerolog.
//
// Console output goes to stderr with coloured levels so that stdout stays
// reserved for command results. An optional log file receives the same events
// as JSON.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "harvester")
//	log.InfoWithFields("Query finished", map[string]interface{}{
//	    "query":     "filetype:pdf golang",
//	    "collected": 42,
//	})
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
