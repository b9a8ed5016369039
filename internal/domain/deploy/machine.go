// Package deploy drives the bootstrap pipeline from preflight checks to
// delegate invocation and final reporting.
package deploy

import (
	"github.com/felixgeelhaar/statekit"
)

// Phase identifies a pipeline state.
type Phase string

const (
	// PhasePrivilege is the root-privilege check.
	PhasePrivilege Phase = "privilege_check"
	// PhaseOS is the OS identity and version check.
	PhaseOS Phase = "os_check"
	// PhaseResources is the advisory RAM/disk check; it cannot fail the run.
	PhaseResources Phase = "resource_check"
	// PhaseConnectivity is the external HTTPS reachability check.
	PhaseConnectivity Phase = "connectivity_check"
	// PhasePackages installs missing OS packages.
	PhasePackages Phase = "dependency_install"
	// PhaseVersionGate verifies the automation engine version.
	PhaseVersionGate Phase = "version_gate"
	// PhaseCollections installs the engine's required collections.
	PhaseCollections Phase = "collection_install"
	// PhaseDelegate hands off to the automation engine.
	PhaseDelegate Phase = "delegate_invoke"
	// PhaseSucceeded is the terminal success state.
	PhaseSucceeded Phase = "succeeded"
	// PhaseFailed is the terminal failure state.
	PhaseFailed Phase = "failed"
)

// Events for the pipeline state machine.
const (
	EventAdvance = "ADVANCE"
	EventFail    = "FAIL"
)

// id converts a Phase to the machine's state identifier type.
func (p Phase) id() statekit.StateID {
	return statekit.StateID(p)
}

// machineContext is the statekit context; the pipeline keeps its real
// state outside the machine and uses it purely as the ordering authority.
type machineContext struct{}

// buildMachine constructs the strictly sequential pipeline machine.
// Every phase has a fatal edge to the failed state except the resource
// phase, whose findings are advisory by contract.
func buildMachine() (*statekit.Interpreter[machineContext], error) {
	machine, err := statekit.NewMachine[machineContext]("socforge-pipeline").
		WithInitial(PhasePrivilege.id()).
		WithContext(machineContext{}).
		State(PhasePrivilege.id()).
		On(EventAdvance).Target(PhaseOS.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseOS.id()).
		On(EventAdvance).Target(PhaseResources.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseResources.id()).
		On(EventAdvance).Target(PhaseConnectivity.id()).Done().
		State(PhaseConnectivity.id()).
		On(EventAdvance).Target(PhasePackages.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhasePackages.id()).
		On(EventAdvance).Target(PhaseVersionGate.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseVersionGate.id()).
		On(EventAdvance).Target(PhaseCollections.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseCollections.id()).
		On(EventAdvance).Target(PhaseDelegate.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseDelegate.id()).
		On(EventAdvance).Target(PhaseSucceeded.id()).
		On(EventFail).Target(PhaseFailed.id()).Done().
		State(PhaseSucceeded.id()).Done().
		State(PhaseFailed.id()).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}
