package core

// Logger is the app-wide logger.
// args may hold errors, a map[string]interface{} of extras or the authenticated user.Profile.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
