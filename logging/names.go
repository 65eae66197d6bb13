package logging

const (
	NameSyncDB          = "SyncDB"
	NameSyncKeys        = "SyncValidatorKeys"
	NameKeyIngestor     = "KeyIngestor"
	NameSharder         = "Sharder"
	NameKeyStorage      = "KeyStorage"
	NameSyncCoordinator = "SyncCoordinator"
)
