// Package buildinfo carries link-time build metadata, e.g.
//
//	go build -ldflags "-X github.com/xelth-com/scraprecon/internal/buildinfo.CommitHash=$(git rev-parse --short HEAD)"
package buildinfo

import "time"

var (
	BuildTime  string
	CommitTime string
	CommitHash string
)

var started = time.Now().UTC()

// Info is the build and process metadata reported by /health
type Info struct {
	BuildTime  string `json:"build_time,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Commit     string `json:"commit,omitempty"`
	StartedAt  string `json:"started_at"`
	Uptime     string `json:"uptime"`
}

// Current returns the metadata as of now
func Current() Info {
	return Info{
		BuildTime:  BuildTime,
		CommitTime: CommitTime,
		Commit:     CommitHash,
		StartedAt:  started.Format(time.RFC3339),
		Uptime:     time.Since(started).Truncate(time.Second).String(),
	}
}

// Version is a short human readable build label
func Version() string {
	if CommitHash == "" {
		return "dev"
	}
	if BuildTime == "" {
		return CommitHash
	}
	return CommitHash + " (" + BuildTime + ")"
}
