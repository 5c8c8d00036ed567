package domain

import "errors"

var (
	// ErrSourceNotFound is returned when the history file does not exist.
	ErrSourceNotFound = errors.New("history source not found")

	// ErrParse is returned when the history bytes are not a JSON array of records.
	ErrParse = errors.New("history source is malformed")

	// ErrNoChartData is returned by chart renderers when there is nothing to plot.
	ErrNoChartData = errors.New("no chart data")

	// ErrMissingAPIKey is returned when an external lookup is attempted without a credential.
	ErrMissingAPIKey = errors.New("LASTFM_API_KEY is required")
)
