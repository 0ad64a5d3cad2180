// Package loader reads CMS public use files into canonical tables and
// caches them by file identity.
//
// A cache entry is keyed on (absolute path, modification time, size): an
// unchanged file is never re-read, a changed one is never served stale.
// Concurrent loads of the same cold key share a single normalization
// through a per-key flight. Excel and CSV inputs run through the same
// normalizer, so Convert is a pure format change.
package loader
