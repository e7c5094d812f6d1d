package config

// NewPolicyForTest creates a Policy with the given file path
func NewPolicyForTest(path string) *Policy {
	return &Policy{path: path}
}

// NewLoggerForTest creates a Logger with the given settings
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}
