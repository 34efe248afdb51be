package service

// TwoFactorRecorder records outcomes of two-factor operations.
type TwoFactorRecorder interface {
	TwoFactorAttempt(operation, outcome string)
}

// DistributionRecorder records outcomes of distribution batches.
type DistributionRecorder interface {
	LeadsDistributed(method string, assigned, skipped, failed int)
}

type nopRecorder struct{}

func (nopRecorder) TwoFactorAttempt(string, string)       {}
func (nopRecorder) LeadsDistributed(string, int, int, int) {}
