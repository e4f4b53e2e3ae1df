package logger

type Logger interface {
	Log(msg string)
	Debug(msg string)
	Error(msg string, err error)
	With(key string, value any) Logger
}
