// Package sanitizer normalises free-form input before validation and storage.
//
// All functions are idempotent. Invalid input is never rejected here: it is either
// cleaned or returned unchanged so the validators can report it.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Labels (amenities): trimmed, collapsed, lowercase
//   - Phone numbers: E.164 when the number parses in a supported region
//   - URLs: https scheme, lowercase host, no trailing slash
//   - Slices: drop empty values and duplicates after normalization
package sanitizer
