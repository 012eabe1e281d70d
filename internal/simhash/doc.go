// Package simhash computes 64-bit locality-sensitive fingerprints of token
// streams and compares them by Hamming distance.
//
// Pages whose fingerprints differ in fewer than Threshold bits are treated
// as near-duplicates. The zero fingerprint is reserved for "no usable
// content" and never matches anything, including another zero.
package simhash
