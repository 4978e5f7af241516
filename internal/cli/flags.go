package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand runs the HTTP daemon.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// ListCommand prints a filtered page of stored events.
type ListCommand struct {
	Domain     string `long:"domain" description:"Case-insensitive domain substring"`
	Prediction string `long:"prediction" description:"Verdict: benign | malware | spam | phishing"`
	Page       string `long:"page" description:"1-based page number" default:"1"`
	Limit      string `long:"limit" description:"Page size, 0 for all matches" default:"20"`
	Sort       string `long:"sort" description:"Sort column" default:"createdAt"`
	Direction  string `long:"direction" description:"asc | desc" default:"desc"`

	globals *GlobalFlags
	version string
}

// StatsCommand summarizes all stored events.
type StatsCommand struct {
	globals *GlobalFlags
	version string
}

// ImportCommand ingests a JSON array of records.
type ImportCommand struct {
	File string `long:"file" description:"JSON file to import, - for stdin (required)"`

	globals *GlobalFlags
	version string
}
