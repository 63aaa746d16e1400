package config

var (
	ParseLogFormat = parseLogFormat
	ParseLogLevel  = parseLogLevel
)
