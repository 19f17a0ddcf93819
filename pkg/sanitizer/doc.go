// Package sanitizer normalizes customer contact input before validation and
// storage.
//
// All functions are idempotent and never fail: input that cannot be normalized
// comes back empty so the validator can report it as a field error.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), national numbers read as US
//   - Emails: trimmed and lowercased, since email is the customer identity
//   - Names and vehicle text: whitespace collapsed and trimmed
//   - Notes: trimmed, inner line breaks kept
package sanitizer
