// Package dedupe provides content deduplication using a time-based hash
// cache so repeated identical clipboard captures are skipped cheaply.
package dedupe
