package config

import "time"

// Application constants for the IMCE monitoring dashboard
const (
	// Application Info
	AppName     = "IMCE — E&S Monitoring"
	AppVersion  = "2.0.0"
	ServiceName = "imce-dashboard"
	EnvPrefix   = "IMCE"

	// Survey snapshot file names
	PAPsFileName        = "PAPs_clean.csv"
	WorkersFileName     = "workers_clean.csv"
	ContractorsFileName = "contractors_clean.csv"
	GRCFileName         = "GRC_clean.csv"
	DistrictFileName    = "district_clean.csv"
	ChecklistFileName   = "checklist_clean.csv"

	// Server
	DefaultPort    = 8050
	DefaultLogFile = "logs/imce.log"

	// Cache Settings
	DataCacheDuration = 10 * time.Minute

	// Filter values
	FilterAll          = "ALL"
	MaxFilterValueSize = 128
)
