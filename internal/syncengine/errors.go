package syncengine

import (
	"errors"
	"fmt"
)

// Exported variables.
var (
	ErrNoPlan         = errors.New("no plan computed")
	ErrQueueExhausted = errors.New("nothing left to copy")
	ErrBusy           = errors.New("a copy is in progress")
	ErrNotDirectory   = errors.New("not a directory")
	//nolint:staticcheck // ST1005: shown to the user verbatim
	ErrSourceNotFound = errors.New("Source folder not found.")
	//nolint:staticcheck // ST1005: shown to the user verbatim
	ErrDestinationNotFound = errors.New("Destination folder not found.")
)

// PlanError reports why no plan could be produced.
type PlanError struct {
	Op   string // "source", "destination", "watermarks", "discover", "list", "check", "timestamp"
	Path string
	Err  error
}

func (e *PlanError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("plan %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("plan %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// CopyError records a queue item that did not copy. The queue moves on.
type CopyError struct {
	Item WorkItem
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s: %v", e.Item.RelativePath, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed watermark save. The table stays dirty and
// the save is attempted again at the next idle tick.
type PersistError struct {
	Location string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("Can't save control file: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
