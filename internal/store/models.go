package store

import "time"

// ProvisionRun records one automation run
type ProvisionRun struct {
	ID               int64
	RunUUID          string
	StartTime        time.Time
	EndTime          time.Time
	ContainersSeen   int
	HostsRegistered  int
	HostsSkipped     int
	HostsInventoried int
	DirsPruned       int
	Status           string // "running", "success", "failed"
	ErrorMessage     string
}

// HostRecord tracks an auto-created host across runs
type HostRecord struct {
	ID         int64
	HostID     string
	ParentHost string
	FirstSeen  time.Time
	LastSeen   time.Time
	LastRunID  int64
}
