package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIKey            = errors.New("no API key configured, use 'hexo config set api_key KEY' or HEXO_API_KEY")
	ErrNoAPISecret         = errors.New("no API secret configured, use 'hexo config set api_secret SECRET' or HEXO_API_SECRET")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidFilter       = errors.New("invalid filter, expected KEY=VALUE")
	ErrInvalidAssignment   = errors.New("invalid assignment, expected KEY=VALUE")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrNoData              = errors.New("no data provided, use --data or --set")
	ErrUsernameRequired    = errors.New("username is required")
)
