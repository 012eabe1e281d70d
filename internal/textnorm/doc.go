// Package textnorm turns rendered HTML into the text and token forms the
// fingerprint engines consume.
//
// VisibleText strips markup that never renders as page copy, NormalizeText
// canonicalizes whitespace and Unicode forms for exact hashing, and Tokenize
// produces the lexical tokens fed to SimHash. All functions are pure and
// safe for concurrent use.
package textnorm
