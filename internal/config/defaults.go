package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "info"
	DefaultJSONLog         = false
	DefaultBaseURL         = "https://www.zehrs.ca/"
	DefaultCategoryURL     = "https://www.zehrs.ca/food/drinks/juice/c/28230?navid=flyout-L3-Drinks-Juice"
	DefaultUserAgent       = ""
	DefaultHeadless        = true
	DefaultWindowWidth     = 1920
	DefaultWindowHeight    = 1080
	DefaultImplicitWait    = 10 * time.Second
	DefaultWaitTimeout     = 10 * time.Second
	DefaultSettleTimeout   = 10 * time.Second
	DefaultGridTimeout     = 10 * time.Second
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultHoverSettle     = 1 * time.Second
	DefaultActionSettle    = 2 * time.Second
	DefaultPaginationClick = "script"
	DefaultMaxPerPage      = 5
	DefaultPages           = 1
	DefaultOutputPath      = "products.csv"
	DefaultNavigationRPS   = 1.0
	DefaultNavigationBurst = 2
	DefaultRunTimeout      = 10 * time.Minute
	DefaultNavAttempts     = 3

	// EnvPrefix prefixes every environment override
	EnvPrefix = "SHELFSCAN_"
)
