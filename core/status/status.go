// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status

import (
	"fmt"

	"github.com/juju/errors"
)

// Status is the workload status a unit reports to the model.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

const (
	// Maintenance is set when:
	// The unit is not yet providing services, but is actively doing stuff
	// in preparation for providing those services.
	Maintenance Status = "maintenance"

	// Unknown is set when:
	// The charm has not called status-set yet.
	Unknown Status = "unknown"

	// Waiting is set when:
	// The unit is unable to progress to an active state because something
	// outside the unit's control is not ready.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

// ValidWorkloadStatus returns true if status has a valid value (that is to
// say, a value that a charm may set) for a unit.
func ValidWorkloadStatus(status Status) bool {
	switch status {
	case
		Blocked,
		Maintenance,
		Waiting,
		Active,
		Unknown:
		return true
	default:
		return false
	}
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
}

// NewActive returns an active StatusInfo with the given message.
func NewActive(message string) StatusInfo {
	return StatusInfo{Status: Active, Message: message}
}

// NewBlocked returns a blocked StatusInfo with the given message.
func NewBlocked(message string) StatusInfo {
	return StatusInfo{Status: Blocked, Message: message}
}

// NewWaiting returns a waiting StatusInfo with the given message.
func NewWaiting(message string) StatusInfo {
	return StatusInfo{Status: Waiting, Message: message}
}

// NewMaintenance returns a maintenance StatusInfo with the given message.
func NewMaintenance(message string) StatusInfo {
	return StatusInfo{Status: Maintenance, Message: message}
}

// IsActive reports whether the status is active.
func (s StatusInfo) IsActive() bool {
	return s.Status == Active
}

// Validate returns an error if the status cannot be set on a unit.
func (s StatusInfo) Validate() error {
	if !ValidWorkloadStatus(s.Status) {
		return errors.NotValidf("workload status %q", s.Status)
	}
	return nil
}

func (s StatusInfo) String() string {
	if s.Message == "" {
		return s.Status.String()
	}
	return fmt.Sprintf("%s: %s", s.Status, s.Message)
}
