package lockdown

import (
	"errors"
	"fmt"
)

// Engine wires the verifier, the status store and the collaborators together.
type Engine struct {
	Configs   ConfigStore
	Status    *StatusStore
	Directory Directory
}

func NewEngine(configs ConfigStore, status *StatusStore, dir Directory) *Engine {
	return &Engine{Configs: configs, Status: status, Directory: dir}
}

// storeErr tags collaborator failures so callers can tell them from verdicts.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrCourseNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
