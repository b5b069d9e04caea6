// Package project holds the translation ledger for one subtitle file: the
// original and translated text, a status per line, and the settings used.
//
// A Project is the only mutable state shared across a run. The dispatcher
// writes batch-scoped slices through ApplyBatchResult and MarkInProgress,
// manual edits go through SetLineTranslation and SetLineStatus, and readers
// such as the status API take snapshots. Save and Load persist the ledger as
// indented JSON behind a lock file so a run can be resumed after a restart.
package project
