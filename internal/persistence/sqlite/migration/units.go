package migration

// defaultUnits is the full released lineage, ascending. The list is static
// and append-only: a unit that turned out to be wrong is corrected by a later
// unit (see fix_share_uniqueness), never by editing history.
var defaultUnits = []Unit{
	{Version: 1, Name: "create_core_tables", Up: upCreateCoreTables, Down: downCreateCoreTables},
	{Version: 2, Name: "add_password_flags_to_users", Up: upAddPasswordFlagsToUsers},
	{Version: 3, Name: "create_integrations_table", Up: upCreateIntegrationsTable, Down: downCreateIntegrationsTable},
	{Version: 4, Name: "migrate_single_instance_integrations", Up: upMigrateSingleInstanceIntegrations, Down: downNotImplemented},
	{Version: 5, Name: "create_integration_shares", Up: upCreateIntegrationShares, Down: downCreateIntegrationShares},
	{Version: 6, Name: "rename_plexmedia_integration_type", Up: upRenamePlexmediaIntegrationType, Down: downNotImplemented},
	{Version: 7, Name: "scale_widget_heights", Up: upScaleWidgetHeights, Down: downNotImplemented},
	{Version: 8, Name: "encrypt_integration_configs", Up: upEncryptIntegrationConfigs, Down: downNotImplemented},
	{Version: 9, Name: "replace_share_name_references", Up: upReplaceShareNameReferences},
	{Version: 10, Name: "fix_share_uniqueness", Up: upFixShareUniqueness},
	{Version: 11, Name: "prune_stale_sessions", Up: upPruneStaleSessions},
	{Version: 12, Name: "add_board_home_flag", Up: upAddBoardHomeFlag},
	{Version: 13, Name: "reset_proxy_auth_placeholders", Up: upResetProxyAuthPlaceholders, Down: downNotImplemented},
	{Version: 14, Name: "normalize_board_layout_objects", Up: upNormalizeBoardLayoutObjects},
	{Version: 15, Name: "index_sessions_user_id", Up: upIndexSessionsUserID, Down: downIndexSessionsUserID},
}
