package memes

// Phase is a state of the activation state machine.
//
//	Starting -> SyncingBackend -> SyncFailed
//	                           -> BackendSynced -> RegisteringCommands -> RegistrationFailed
//	                                                                   -> Active
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseSyncingBackend
	PhaseSyncFailed
	PhaseBackendSynced
	PhaseRegisteringCommands
	PhaseRegistrationFailed
	PhaseActive
)

var phaseNames = [...]string{
	PhaseIdle:                "idle",
	PhaseStarting:            "starting",
	PhaseSyncingBackend:      "syncing_backend",
	PhaseSyncFailed:          "sync_failed",
	PhaseBackendSynced:       "backend_synced",
	PhaseRegisteringCommands: "registering_commands",
	PhaseRegistrationFailed:  "registration_failed",
	PhaseActive:              "active",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Failed reports whether p is a terminal failure.
func (p Phase) Failed() bool {
	return p == PhaseSyncFailed || p == PhaseRegistrationFailed
}
