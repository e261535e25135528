// Package installer — netdev.go
//
// NIC tuning for tunnel traffic. UDP GRO forwarding on the
// default-route device gives encapsulated traffic a significant
// throughput boost, but the whole feature is best-effort: an
// unsupported NIC or a missing dispatcher degrades, never aborts.
package installer

import (
	"fmt"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/ripsline/mesh-subnet-node/internal/logging"
)

const offloadFeature = "rx-udp-gro-forwarding"

// dispatcherHookPath is where the re-apply script is installed when
// networkd-dispatcher is available.
const dispatcherHookPath = "/etc/networkd-dispatcher/routable.d/50-rlmesh-offload"

// dispatcherHookScript re-detects the default-route device and
// re-applies the offload toggle on every network-up event, so the
// tuning survives reboots and interface changes.
const dispatcherHookScript = `#!/bin/sh
# rlmesh: re-apply UDP GRO forwarding on the default-route device.
dev="$(ip -o route get 8.8.8.8 | cut -f 5 -d ' ')"
[ -n "$dev" ] || exit 0
ethtool -K "$dev" rx-udp-gro-forwarding on rx-gro-list off || true
`

// DetectDefaultDevice returns the interface carrying the IPv4
// default route. It asks the kernel over netlink and falls back to
// parsing ip route output. A host with no default route is a valid
// terminal state: ok is false and the optimizer is skipped.
func DetectDefaultDevice(run Runner) (string, bool) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err == nil {
		for _, r := range routes {
			if r.Dst != nil {
				continue
			}
			link, err := netlink.LinkByIndex(r.LinkIndex)
			if err != nil {
				continue
			}
			return link.Attrs().Name, true
		}
	}

	output, err := run.Run("ip", "route", "show", "default")
	if err != nil {
		return "", false
	}
	return parseDefaultRoute(string(output))
}

// parseDefaultRoute extracts the device name from a line like
// "default via 192.168.1.1 dev eth0 proto dhcp".
func parseDefaultRoute(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "default" {
			continue
		}
		for i, f := range fields {
			if f == "dev" && i+1 < len(fields) {
				return fields[i+1], true
			}
		}
	}
	return "", false
}

// ApplyOffloadSettings enables UDP GRO forwarding on device if the
// NIC reports the feature. An unsupported NIC returns
// ErrUnsupportedFeature, which callers treat as a warning.
func ApplyOffloadSettings(run Runner, device string) error {
	output, err := run.Run("ethtool", "-k", device)
	if err != nil {
		return fmt.Errorf("query features on %s: %w", device, err)
	}
	if !offloadSupported(string(output)) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedFeature, offloadFeature, device)
	}

	_, err = run.Sudo("ethtool", "-K", device,
		offloadFeature, "on", "rx-gro-list", "off")
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", offloadFeature, device, err)
	}
	logging.Infof("enabled %s on %s", offloadFeature, device)
	return nil
}

// offloadSupported reports whether ethtool -k output lists the
// feature as togglable. Features the driver cannot change are
// marked [fixed].
func offloadSupported(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, offloadFeature+":") {
			continue
		}
		return !strings.Contains(trimmed, "[fixed]")
	}
	return false
}

// PersistOffloadSettings installs a networkd-dispatcher hook that
// re-applies the offload setting on every network-up event. When the
// dispatcher is not enabled on the host this returns
// ErrDispatcherUnavailable; losing persistence across reboots is an
// accepted degraded state.
func PersistOffloadSettings(run Runner, device string) error {
	if _, err := run.Run("systemctl", "is-enabled", "networkd-dispatcher"); err != nil {
		return fmt.Errorf("%w: offload setting will not survive a reboot", ErrDispatcherUnavailable)
	}

	if _, err := run.SudoInput(dispatcherHookScript, "tee", dispatcherHookPath); err != nil {
		return fmt.Errorf("write dispatcher hook: %w", err)
	}
	if _, err := run.Sudo("chmod", "755", dispatcherHookPath); err != nil {
		return fmt.Errorf("chmod dispatcher hook: %w", err)
	}
	logging.Infof("installed dispatcher hook %s for %s", dispatcherHookPath, device)
	return nil
}
