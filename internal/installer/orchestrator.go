// Package installer — orchestrator.go
//
// Sequences the whole bring-up. The stages are strictly ordered and
// non-retryable: any failure aborts the run. Validation failures
// never reach this level — input is re-prompted at the point of
// collection instead.
package installer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ripsline/mesh-subnet-node/internal/logging"
)

// Stage tracks how far the run has progressed.
type Stage int

const (
	StageNotStarted Stage = iota
	StagePackagesReady
	StageNetworkConfigured
	StageAuthKeyCollected
	StageSubnetsCollected
	StageConnected
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not started"
	case StagePackagesReady:
		return "packages ready"
	case StageNetworkConfigured:
		return "network configured"
	case StageAuthKeyCollected:
		return "auth key collected"
	case StageSubnetsCollected:
		return "subnets collected"
	case StageConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// SubnetSet is the ordered, append-only collection of subnets to
// advertise. Order is preserved from collection to serialization.
type SubnetSet struct {
	cidrs []string
}

// Add appends cidr unless it is already present.
func (s *SubnetSet) Add(cidr string) bool {
	for _, existing := range s.cidrs {
		if existing == cidr {
			return false
		}
	}
	s.cidrs = append(s.cidrs, cidr)
	return true
}

// Len returns the number of collected subnets.
func (s *SubnetSet) Len() int {
	return len(s.cidrs)
}

// CIDRs returns the subnets in collection order.
func (s *SubnetSet) CIDRs() []string {
	out := make([]string, len(s.cidrs))
	copy(out, s.cidrs)
	return out
}

// Join serializes the set for the advertise-routes flag.
func (s *SubnetSet) Join() string {
	return strings.Join(s.cidrs, ",")
}

// Orchestrator drives the stages in order and owns the run state.
// No globals: everything a stage needs is threaded through here.
type Orchestrator struct {
	run        Runner
	sysctl     *SysctlWriter
	sysctlPath string
	stage      Stage
	subnets    SubnetSet
	exitNode   bool
	srcRoute   bool
	authKey    *Secret

	// Device carries the optimizer outcome for the saved config.
	Device           string
	OffloadPersisted bool
}

// NewOrchestrator returns an orchestrator for one run.
func NewOrchestrator(run Runner, exitNode, acceptSourceRoute bool) *Orchestrator {
	return &Orchestrator{
		run:        run,
		sysctl:     NewSysctlWriter(run),
		sysctlPath: SysctlConfPath,
		stage:      StageNotStarted,
		exitNode:   exitNode,
		srcRoute:   acceptSourceRoute,
	}
}

// Stage returns the current stage.
func (o *Orchestrator) Stage() Stage {
	return o.stage
}

// Subnets returns the collected subnets in order.
func (o *Orchestrator) Subnets() []string {
	return o.subnets.CIDRs()
}

// ExitNode reports whether the node advertises itself as an exit node.
func (o *Orchestrator) ExitNode() bool {
	return o.exitNode
}

func (o *Orchestrator) requireStage(want Stage) error {
	if o.stage != want {
		return fmt.Errorf("stage is %s, expected %s", o.stage, want)
	}
	return nil
}

// PreparePackages installs required packages, the mesh client and
// its daemon.
func (o *Orchestrator) PreparePackages() error {
	if err := o.requireStage(StageNotStarted); err != nil {
		return err
	}
	if err := EnsurePackages(o.run); err != nil {
		return err
	}
	if err := EnsureClient(o.run); err != nil {
		return err
	}
	if err := EnsureDaemon(o.run); err != nil {
		return err
	}
	o.stage = StagePackagesReady
	return nil
}

// ConfigureNetwork applies the forwarding sysctls and tunes the
// default-route device. Offload problems degrade with a warning;
// only a failed kernel reload is fatal.
func (o *Orchestrator) ConfigureNetwork() error {
	if err := o.requireStage(StagePackagesReady); err != nil {
		return err
	}

	if _, err := o.sysctl.Apply(o.sysctlPath, ForwardingLines(o.srcRoute)); err != nil {
		return err
	}

	device, ok := DetectDefaultDevice(o.run)
	if !ok {
		logging.Warnf("no default route found, skipping NIC tuning")
		o.stage = StageNetworkConfigured
		return nil
	}
	o.Device = device

	if err := ApplyOffloadSettings(o.run, device); err != nil {
		if !errors.Is(err, ErrUnsupportedFeature) {
			return err
		}
		logging.Warnf("%v", err)
		o.stage = StageNetworkConfigured
		return nil
	}

	if err := PersistOffloadSettings(o.run, device); err != nil {
		if !errors.Is(err, ErrDispatcherUnavailable) {
			return err
		}
		logging.Warnf("%v", err)
	} else {
		o.OffloadPersisted = true
	}

	o.stage = StageNetworkConfigured
	return nil
}

// SetAuthKey stores the collected auth key. The caller validates
// the format before handing it over.
func (o *Orchestrator) SetAuthKey(key *Secret) error {
	if err := o.requireStage(StageNetworkConfigured); err != nil {
		return err
	}
	o.authKey = key
	o.stage = StageAuthKeyCollected
	return nil
}

// AddSubnet appends a validated CIDR to the advertise set.
func (o *Orchestrator) AddSubnet(cidr string) bool {
	return o.subnets.Add(cidr)
}

// FinishSubnets seals subnet collection. At least one subnet is
// mandatory for a subnet router.
func (o *Orchestrator) FinishSubnets() error {
	if err := o.requireStage(StageAuthKeyCollected); err != nil {
		return err
	}
	if o.subnets.Len() == 0 {
		return fmt.Errorf("at least one subnet is required")
	}
	o.stage = StageSubnetsCollected
	return nil
}

// composeUpArgs builds the client bring-up argument list. The key is
// passed by value so the slice never outlives the Secret's buffer
// beyond the single exec call.
func composeUpArgs(key string, subnets *SubnetSet, exitNode bool) []string {
	args := []string{"up", "--auth-key=" + key, "--accept-routes"}
	if subnets.Len() > 0 {
		args = append(args, "--advertise-routes="+subnets.Join())
	}
	if exitNode {
		args = append(args, "--advertise-exit-node")
	}
	return args
}

// BringUp authenticates and connects the node. The auth key is
// zeroed the moment the client call returns, whether or not it
// succeeded. After a successful bring-up the connection status is
// polled once and a pending route approval is surfaced as a
// warning, not an error.
func (o *Orchestrator) BringUp() error {
	if err := o.requireStage(StageSubnetsCollected); err != nil {
		return err
	}
	if o.authKey == nil || o.authKey.Empty() {
		return fmt.Errorf("auth key missing")
	}

	args := composeUpArgs(o.authKey.Value(), &o.subnets, o.exitNode)
	_, err := o.run.Sudo(clientBinary, args...)
	o.authKey.Zero()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBringUpFailed, err)
	}

	logging.Infof("mesh connection is up, advertising %s", o.subnets.Join())

	if output, err := o.run.Run(clientBinary, "status"); err == nil {
		if RoutesPendingApproval(string(output)) {
			logging.Warnf("advertised routes are pending approval in the admin console")
		}
	}

	o.stage = StageConnected
	return nil
}

// RoutesPendingApproval reports whether a status output mentions
// routes waiting for administrative approval.
func RoutesPendingApproval(status string) bool {
	lower := strings.ToLower(status)
	return strings.Contains(lower, "pending approval") ||
		strings.Contains(lower, "awaiting approval")
}
