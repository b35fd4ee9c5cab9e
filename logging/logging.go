// Package logging adapts popular logger libraries to pagestore.Logger.
//
// Example with zap:
//
//	zapLogger, _ := zap.NewProduction()
//	bpm := buffer.New(128, dm, buffer.WithLogger(logging.NewZap(zapLogger)))
package logging

// argsToFields pairs up a (key, value, key, value, ...) args slice the
// way slog and most structured loggers expect it.
func argsToFields(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return fields
}
