// Package models contains GORM persistence models that map to database tables.
// Domain aggregates stay free of ORM tags; each model converts with ToDomain
// and a ...ModelFromDomain constructor.
//
// Tables:
//   - rate_items: every revision of every rate card entry
//   - clients, business_settings
//   - invoices with invoice_lines, invoice_taxes and invoice_payments
//   - invoice_counters: per owner, per year number sequences
//
// Column types are chosen to work on both PostgreSQL and SQLite.
package models
