//go:build !noserialize

package serialize

const compiledIn = true
