package config

// Application constants - hardcoded values shared by every executable
const (
	// Application Info
	AppName    = "RTU Pulse"
	AppVersion = "1.2.0"

	// Config file, resolved next to the executable
	ConfigFileName = "rtupulse.yaml"

	// File Paths (relative to executable)
	DefaultDataDir   = "data"
	DefaultLogsDir   = "logs"
	DefaultInputDir  = "data/input"
	DefaultOutputDir = "data/output"
	CombinedSubdir   = "combined"
	CleanSubdir      = "clean"
	ResultsSubdir    = "results"
	ResultsCSVName   = "rtu_efficiency_summary.csv"
	ResultsXLSXName  = "rtu_efficiency_summary.xlsx"

	// Source filename convention: TrendExport-<SITE>_<period>.xlsx
	SourceFileMarker    = "TrendExport"
	SourceFileExtension = ".xlsx"

	// Workbook format limit: xlsx sheet names hold at most 31 characters
	SheetNameLimit = 31

	// Processing defaults
	DefaultJoinToleranceSeconds = 60
	DefaultMaxIntervalSeconds   = 960
	DefaultNominalFlowCFM       = 9600
	DefaultPercentileBand       = 0.05
)
