// SPDX-License-Identifier: MPL-2.0

// Package deploy applies and cleans up sets of declaratively specified
// containers.
//
// A ConfigSet maps container names to specs. Apply converges the engine on
// the set: containers whose recorded config_data label no longer matches are
// removed, missing images are pulled, and absent containers are started in
// start_order. Cleanup removes every container scoped to the given config
// IDs. Both report the commands they ran as text lines plus a return code,
// and log through a logger built from the per-call LogConfig.
package deploy
