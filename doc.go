// Package tracker turns an append-only ledger of buy and sell trades into
// position, valuation and profit/loss views.
//
// An evaluation pass is a pure function of the ledger and of the quotes
// received during the pass:
//   - Aggregate groups trades by Key (symbol, optionally account) and computes
//     net quantity and weighted average cost.
//   - Realize derives one RealizedEvent per sell and the cumulative realized
//     profit, ordered by date.
//   - Valuate prices open positions with a QuoteProvider, falling back to the
//     average cost when a quote is unavailable.
//   - Summarize folds everything into a Snapshot with portfolio totals.
//
// Nothing survives between passes: every Snapshot is recomputed from the full
// ledger. Storage, quotes and symbol search are external collaborators behind
// the LedgerSource, LedgerAppender, QuoteProvider and SymbolSearcher
// interfaces; see the store and quote packages for implementations.
package tracker
