// Package quantityrule implements the minimum-quantity rule for sales-document lines.
//
// The rule is a single event handler that a sales-document editor host invokes whenever an
// article has been identified on a line. It looks up the article's minimum-quantity value
// through the host's query capability and, depending on the configured Policy, overwrites the
// line's quantity with it.
//
// The handler only depends on narrow capability interfaces (QueryCapability, ResultSet,
// Editor, Document, LineCollection, Line), never on the host's concrete types.
// It never returns an error or panics back into the host: every failure at an external
// boundary ends the invocation as a no-op and is reported through the returned Outcome and
// the optional observability hooks.
//
// Usage:
//
//	policy := quantityrule.Policy{ForceAlways: true}
//	handler, _ := quantityrule.NewHandler(
//		editor,
//		catalog,
//		policy,
//		quantityrule.WithLogger(slog.Default()),
//	)
//
//	outcome := handler.ArticleIdentified(ctx, quantityrule.ArticleIdentifiedEvent{
//		Article:   "A100",
//		LineIndex: 0,
//	})
package quantityrule
