package dsl

import "runtime"

// defaultCaller reports the file/line of the DSL call site, skipping the
// requested number of stack frames above defaultCaller itself.
func defaultCaller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0
	}
	return file, line
}
