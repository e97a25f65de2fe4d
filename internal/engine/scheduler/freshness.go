package scheduler

import (
	"time"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// needsRun decides whether an action must execute. It runs when forced, when an output
// or its dependency record is missing, when an input is newer than the oldest output,
// or when its command changed since it last ran.
func (s *Scheduler) needsRun(root string, a *domain.Action, hash string, force bool) (bool, error) {
	if force || a.AlwaysRun || len(a.Outputs) == 0 {
		return true, nil
	}

	var oldest time.Time
	for i, out := range a.Outputs {
		mt, ok, err := s.stater.ModTime(absPath(root, out))
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		if i == 0 || mt.Before(oldest) {
			oldest = mt
		}
	}

	if a.DepFile != "" {
		_, ok, err := s.stater.ModTime(absPath(root, a.DepFile))
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
	}

	for _, group := range [][]string{a.Inputs, a.Sources, a.Against} {
		for _, in := range group {
			mt, ok, err := s.stater.ModTime(absPath(root, in))
			if err != nil {
				return false, err
			}
			// A missing input is reported by whatever reads it.
			if !ok || mt.After(oldest) {
				return true, nil
			}
		}
	}

	info, err := s.store.Get(a.Name())
	if err != nil {
		return false, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return info == nil || info.CommandHash != hash, nil
}

// checkOutputs fails when a successful step did not produce a declared output.
func (s *Scheduler) checkOutputs(root string, a *domain.Action) error {
	for _, out := range a.Outputs {
		_, ok, err := s.stater.ModTime(absPath(root, out))
		if err != nil {
			return err
		}
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrMissingCollaboratorOutput, "output not produced"), "path", out)
		}
	}
	return nil
}
