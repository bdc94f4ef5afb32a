package events

// Opcode identifies the kind of a gateway frame. The numeric values are part of the wire protocol and must not change.
type Opcode int

const (
	OpcodeDispatch            Opcode = 0
	OpcodeHeartbeat           Opcode = 1
	OpcodeIdentify            Opcode = 2
	OpcodePresenceUpdate      Opcode = 3
	OpcodeVoiceStateUpdate    Opcode = 4
	OpcodeVoiceServerPing     Opcode = 5
	OpcodeResume              Opcode = 6
	OpcodeReconnect           Opcode = 7
	OpcodeRequestGuildMembers Opcode = 8
	OpcodeInvalidSession      Opcode = 9
	OpcodeHello               Opcode = 10
	OpcodeHeartbeatACK        Opcode = 11
	// OpcodeGuildSync is the legacy guild synchronisation opcode. Deprecated; decoding it is a hard error.
	OpcodeGuildSync           Opcode = 12
	OpcodeCallConnect         Opcode = 13
	OpcodeGuildSubscriptions  Opcode = 14
	OpcodeLobbyConnect        Opcode = 15
	OpcodeLobbyDisconnect     Opcode = 16
	OpcodeLobbyVoiceStates    Opcode = 17
	OpcodeStreamCreate        Opcode = 18
	OpcodeStreamDelete        Opcode = 19
	OpcodeStreamWatch         Opcode = 20
	OpcodeStreamPing          Opcode = 21
	OpcodeStreamSetPaused     Opcode = 22
	// OpcodeRequestApplicationCommands is the legacy guild application commands request. Deprecated; decoding it is a
	// hard error.
	OpcodeRequestApplicationCommands Opcode = 24
	OpcodeEmbeddedActivityLaunch     Opcode = 25
	OpcodeEmbeddedActivityClose      Opcode = 26
	OpcodeEmbeddedActivityUpdate     Opcode = 27
	OpcodeRequestForumUnreads        Opcode = 28
	OpcodeRemoteCommand              Opcode = 29
	OpcodeRequestDeletedEntitlements Opcode = 30
	OpcodeRequestSoundboardSounds    Opcode = 31
	OpcodeSpeedTestCreate            Opcode = 32
	OpcodeSpeedTestDelete            Opcode = 33
	OpcodeRequestLastMessages        Opcode = 34
	OpcodeSearchRecentMembers        Opcode = 35
	OpcodeRequestChannelStatuses     Opcode = 36
)

// OpcodeKind classifies an opcode for routing purposes.
type OpcodeKind int

const (
	// KindUnknown marks an opcode outside the recognised set. Sessions receiving one close with 4001.
	KindUnknown OpcodeKind = iota
	// KindDispatch is opcode 0; the dispatch name selects the concrete event.
	KindDispatch
	// KindHeartbeat is opcode 1, valid in both directions.
	KindHeartbeat
	// KindIdentify is opcode 2, client to server.
	KindIdentify
	// KindResume is opcode 6, client to server.
	KindResume
	// KindServerControl covers server-to-client control frames: Reconnect, InvalidSession, Hello, HeartbeatACK.
	KindServerControl
	// KindClientRequest covers recognised client-to-server opcodes whose concrete handling lives outside the gateway
	// core (presence, voice, guild member requests, stream ops, embedded activities, speedtest, soundboard). Sessions
	// log and ignore them.
	KindClientRequest
	// KindDeprecated covers opcodes that are recognised but permanently rejected.
	KindDeprecated
)

// ClassifyOpcode maps an opcode to its routing kind.
func ClassifyOpcode(op Opcode) OpcodeKind {
	switch op {
	case OpcodeDispatch:
		return KindDispatch
	case OpcodeHeartbeat:
		return KindHeartbeat
	case OpcodeIdentify:
		return KindIdentify
	case OpcodeResume:
		return KindResume
	case OpcodeReconnect, OpcodeInvalidSession, OpcodeHello, OpcodeHeartbeatACK:
		return KindServerControl
	case OpcodeGuildSync, OpcodeRequestApplicationCommands:
		return KindDeprecated
	case OpcodePresenceUpdate, OpcodeVoiceStateUpdate, OpcodeVoiceServerPing,
		OpcodeRequestGuildMembers, OpcodeCallConnect, OpcodeGuildSubscriptions,
		OpcodeLobbyConnect, OpcodeLobbyDisconnect, OpcodeLobbyVoiceStates,
		OpcodeStreamCreate, OpcodeStreamDelete, OpcodeStreamWatch,
		OpcodeStreamPing, OpcodeStreamSetPaused,
		OpcodeEmbeddedActivityLaunch, OpcodeEmbeddedActivityClose, OpcodeEmbeddedActivityUpdate,
		OpcodeRequestForumUnreads, OpcodeRemoteCommand, OpcodeRequestDeletedEntitlements,
		OpcodeRequestSoundboardSounds, OpcodeSpeedTestCreate, OpcodeSpeedTestDelete,
		OpcodeRequestLastMessages, OpcodeSearchRecentMembers, OpcodeRequestChannelStatuses:
		return KindClientRequest
	default:
		return KindUnknown
	}
}
