// Package conv provides bounds-checked integer conversions for values that
// come from callers or configuration.
package conv
