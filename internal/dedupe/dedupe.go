package dedupe

// Package dedupe provides shared singleflight groups used to collapse
// concurrent reads of the same fight into one reconciliation. Correctness
// never depends on it: resolution is guarded by the store's conditional
// writes, the group only avoids redundant CAS attempts from one process.

import "golang.org/x/sync/singleflight"

// ReconcileGroup deduplicates fight reconciliations keyed by
// "fight:<fightID>".
var ReconcileGroup singleflight.Group

// FightKey returns the ReconcileGroup key for a fight.
func FightKey(fightID string) string {
	return "fight:" + fightID
}
