package types

// ScanStatus is the lifecycle state of a page identity. Idle, Scanning,
// Complete, and Error track the coordinator's state machine; NeedsReload
// and NotScannable are exposure-only statuses reported to presentation for
// pages the coordinator has no record of or cannot scan.
type ScanStatus string

const (
	StatusIdle         ScanStatus = "idle"
	StatusScanning     ScanStatus = "scanning"
	StatusComplete     ScanStatus = "complete"
	StatusError        ScanStatus = "error"
	StatusNeedsReload  ScanStatus = "needs-reload"
	StatusNotScannable ScanStatus = "not-scannable"
)
