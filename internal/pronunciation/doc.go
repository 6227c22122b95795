// Package pronunciation turns a provider response into a single recording to download.
// It strips stress marks from looked-up words, decodes pronunciation candidates leniently
// and picks the winner with a deterministic, order-stable scoring rule.
package pronunciation
