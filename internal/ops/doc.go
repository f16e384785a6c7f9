// Package ops holds the value-level operations behind the builder's
// combinators and the builtin operation catalog used by graph files.
//
// Arithmetic follows a small promotion rule: operands of the same type keep
// that type; otherwise any floating point operand promotes the result to
// float64 and integer operands of differing kinds produce int64. Integer
// division by zero is an error; float division follows IEEE 754.
package ops
