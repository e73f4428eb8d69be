// Package vm is a deterministic interpreter for a subset of JVM bytecode.
//
// A run owns an execution State (a heap plus a stack of call frames) and
// repeatedly applies the transition function Step, which consumes exactly
// one instruction per call. A run ends in one of the terminal outcomes of
// the benchmark taxonomy (ok, divide by zero, assertion error, out of
// bounds, null pointer) or, if the step budget runs out first, the
// non-termination marker "*".
//
// Outcomes are data: they describe the analyzed program. Interpreter
// defects (unsupported instructions, malformed bytecode, type confusion)
// are Go errors and never surface as outcomes.
package vm
