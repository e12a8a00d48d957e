// Package logging provides the structured logger shared by every recall
// component.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - JSON or console encoding to stderr (stdout stays free for the MCP stdio transport)
//   - Context field injection (trace_id, span_id, request.id, query.id)
//   - Redaction of sensitive field names before they reach the encoder
//
// # Usage
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithQueryID(ctx, id)
//	logger.Info(ctx, "query answered", zap.Bool("cited", true))
//
// Components take a *zap.Logger; hand them logger.Underlying().
//
// # Testing
//
// NewTestLogger records every entry in memory:
//
//	tl := logging.NewTestLogger()
//	svc := ingest.NewService(store, reasoner, tl.Underlying())
//	...
//	tl.AssertLogged(t, zapcore.InfoLevel, "transcript stored")
package logging
