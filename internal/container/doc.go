// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for the container engines
// TripleO deploys with (Podman and Docker).
//
// The Engine interface covers what the deploy and fact-gathering code needs: listing,
// inspecting, running, exec-ing into and removing containers, and making sure images
// are present. Both implementations (PodmanEngine and DockerEngine) embed BaseCLIEngine,
// which builds CLI arguments and runs the engine binary through an injectable
// exec.Cmd factory.
//
// Every engine call returns a CommandResult carrying the exit code, stdout and stderr
// as plain values. A non-zero exit code is NOT an error; errors are reserved for
// infrastructure failures such as a missing binary. Callers decide what a non-zero
// exit code means for them.
//
// DockerAPIInspector offers the same list/inspect contract over the engine API socket
// for hosts where shelling out is undesirable.
package container
