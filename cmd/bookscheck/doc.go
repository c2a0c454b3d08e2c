// Command bookscheck provides a CLI utility for validating the books
// configuration used by the photobook server.
//
// It supports the following operations:
//   - check: Validate the config and report every skipped entry
//   - list: Print the books that would load
//
// Usage:
//
//	bookscheck <command> [path]
//
// Commands:
//
//	check   Load the configuration exactly the way the server does at
//	        startup and print every problem that would cause an entry
//	        to be skipped. Exits nonzero when any problem is found, so
//	        it can gate a deploy.
//
//	list    Print one line per book that parses: id, child, month and
//	        the covered date range. Warnings go to stderr so the
//	        listing stays pipeable.
//
// Environment:
//
//	BOOKS_CONFIG - Path to the books config (default: ./config/books.json)
//
// Notes:
//
// The server never refuses to start over a bad books config; invalid
// entries are skipped and surfaced as health warnings. This utility
// exists to catch those problems before they reach a running instance.
package main
