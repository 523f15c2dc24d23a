// Package billing contains the seller-facing document aggregates: the
// priced order cart, quotes, and invoices. Invoice status transitions are
// the only ledger-posting triggers in this domain; quotes are estimates
// and never post.
package billing
