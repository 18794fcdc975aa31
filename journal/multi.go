package journal

import "errors"

type multi []Journal

// Multi records to every non-nil journal. Errors are joined; a failing
// journal does not stop the others.
func Multi(js ...Journal) Journal {
	var m multi
	for _, j := range js {
		if j != nil {
			m = append(m, j)
		}
	}
	return m
}

func (m multi) RecordRun(r Run) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordRun(r))
	}
	return errors.Join(errs...)
}

func (m multi) RecordCandidate(c CandidateRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordCandidate(c))
	}
	return errors.Join(errs...)
}

func (m multi) RecordTrade(t TradeRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordTrade(t))
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
