package events

import (
	"fmt"
	"strings"
)

// DispatchName identifies the concrete event carried by an opcode 0 frame. The canonical string form is
// SCREAMING_SNAKE_CASE and must round-trip bit-exact through decode/encode.
type DispatchName string

const (
	Ready            DispatchName = "READY"
	ReadySupplemental DispatchName = "READY_SUPPLEMENTAL"
	Resumed          DispatchName = "RESUMED"
	SessionsReplace  DispatchName = "SESSIONS_REPLACE"

	ApplicationCommandPermissionsUpdate DispatchName = "APPLICATION_COMMAND_PERMISSIONS_UPDATE"
	AutoModerationRuleCreate            DispatchName = "AUTO_MODERATION_RULE_CREATE"
	AutoModerationRuleUpdate            DispatchName = "AUTO_MODERATION_RULE_UPDATE"
	AutoModerationRuleDelete            DispatchName = "AUTO_MODERATION_RULE_DELETE"
	AutoModerationActionExecution       DispatchName = "AUTO_MODERATION_ACTION_EXECUTION"

	CallCreate DispatchName = "CALL_CREATE"
	CallUpdate DispatchName = "CALL_UPDATE"
	CallDelete DispatchName = "CALL_DELETE"

	ChannelCreate          DispatchName = "CHANNEL_CREATE"
	ChannelUpdate          DispatchName = "CHANNEL_UPDATE"
	ChannelDelete          DispatchName = "CHANNEL_DELETE"
	ChannelPinsUpdate      DispatchName = "CHANNEL_PINS_UPDATE"
	ChannelRecipientAdd    DispatchName = "CHANNEL_RECIPIENT_ADD"
	ChannelRecipientRemove DispatchName = "CHANNEL_RECIPIENT_REMOVE"

	ThreadCreate        DispatchName = "THREAD_CREATE"
	ThreadUpdate        DispatchName = "THREAD_UPDATE"
	ThreadDelete        DispatchName = "THREAD_DELETE"
	ThreadListSync      DispatchName = "THREAD_LIST_SYNC"
	ThreadMemberUpdate  DispatchName = "THREAD_MEMBER_UPDATE"
	ThreadMembersUpdate DispatchName = "THREAD_MEMBERS_UPDATE"

	EntitlementCreate DispatchName = "ENTITLEMENT_CREATE"
	EntitlementUpdate DispatchName = "ENTITLEMENT_UPDATE"
	EntitlementDelete DispatchName = "ENTITLEMENT_DELETE"

	GuildCreate               DispatchName = "GUILD_CREATE"
	GuildUpdate               DispatchName = "GUILD_UPDATE"
	GuildDelete               DispatchName = "GUILD_DELETE"
	GuildAuditLogEntryCreate  DispatchName = "GUILD_AUDIT_LOG_ENTRY_CREATE"
	GuildBanAdd               DispatchName = "GUILD_BAN_ADD"
	GuildBanRemove            DispatchName = "GUILD_BAN_REMOVE"
	GuildEmojisUpdate         DispatchName = "GUILD_EMOJIS_UPDATE"
	GuildStickersUpdate       DispatchName = "GUILD_STICKERS_UPDATE"
	GuildIntegrationsUpdate   DispatchName = "GUILD_INTEGRATIONS_UPDATE"
	GuildMemberAdd            DispatchName = "GUILD_MEMBER_ADD"
	GuildMemberRemove         DispatchName = "GUILD_MEMBER_REMOVE"
	GuildMemberUpdate         DispatchName = "GUILD_MEMBER_UPDATE"
	GuildMembersChunk         DispatchName = "GUILD_MEMBERS_CHUNK"
	GuildRoleCreate           DispatchName = "GUILD_ROLE_CREATE"
	GuildRoleUpdate           DispatchName = "GUILD_ROLE_UPDATE"
	GuildRoleDelete           DispatchName = "GUILD_ROLE_DELETE"
	GuildScheduledEventCreate DispatchName = "GUILD_SCHEDULED_EVENT_CREATE"
	GuildScheduledEventUpdate DispatchName = "GUILD_SCHEDULED_EVENT_UPDATE"
	GuildScheduledEventDelete DispatchName = "GUILD_SCHEDULED_EVENT_DELETE"
	GuildScheduledEventUserAdd    DispatchName = "GUILD_SCHEDULED_EVENT_USER_ADD"
	GuildScheduledEventUserRemove DispatchName = "GUILD_SCHEDULED_EVENT_USER_REMOVE"
	GuildSoundboardSoundCreate    DispatchName = "GUILD_SOUNDBOARD_SOUND_CREATE"
	GuildSoundboardSoundUpdate    DispatchName = "GUILD_SOUNDBOARD_SOUND_UPDATE"
	GuildSoundboardSoundDelete    DispatchName = "GUILD_SOUNDBOARD_SOUND_DELETE"
	GuildSoundboardSoundsUpdate   DispatchName = "GUILD_SOUNDBOARD_SOUNDS_UPDATE"
	SoundboardSounds              DispatchName = "SOUNDBOARD_SOUNDS"
	GuildApplicationCommandCountsUpdate DispatchName = "GUILD_APPLICATION_COMMAND_COUNTS_UPDATE"

	IntegrationCreate DispatchName = "INTEGRATION_CREATE"
	IntegrationUpdate DispatchName = "INTEGRATION_UPDATE"
	IntegrationDelete DispatchName = "INTEGRATION_DELETE"
	InteractionCreate DispatchName = "INTERACTION_CREATE"

	InviteCreate DispatchName = "INVITE_CREATE"
	InviteDelete DispatchName = "INVITE_DELETE"

	MessageCreate              DispatchName = "MESSAGE_CREATE"
	MessageUpdate              DispatchName = "MESSAGE_UPDATE"
	MessageDelete              DispatchName = "MESSAGE_DELETE"
	MessageDeleteBulk          DispatchName = "MESSAGE_DELETE_BULK"
	MessageACK                 DispatchName = "MESSAGE_ACK"
	MessageReactionAdd         DispatchName = "MESSAGE_REACTION_ADD"
	MessageReactionRemove      DispatchName = "MESSAGE_REACTION_REMOVE"
	MessageReactionRemoveAll   DispatchName = "MESSAGE_REACTION_REMOVE_ALL"
	MessageReactionRemoveEmoji DispatchName = "MESSAGE_REACTION_REMOVE_EMOJI"
	MessagePollVoteAdd         DispatchName = "MESSAGE_POLL_VOTE_ADD"
	MessagePollVoteRemove      DispatchName = "MESSAGE_POLL_VOTE_REMOVE"

	PresenceUpdate     DispatchName = "PRESENCE_UPDATE"
	RelationshipAdd    DispatchName = "RELATIONSHIP_ADD"
	RelationshipRemove DispatchName = "RELATIONSHIP_REMOVE"

	StageInstanceCreate DispatchName = "STAGE_INSTANCE_CREATE"
	StageInstanceUpdate DispatchName = "STAGE_INSTANCE_UPDATE"
	StageInstanceDelete DispatchName = "STAGE_INSTANCE_DELETE"

	SubscriptionCreate DispatchName = "SUBSCRIPTION_CREATE"
	SubscriptionUpdate DispatchName = "SUBSCRIPTION_UPDATE"
	SubscriptionDelete DispatchName = "SUBSCRIPTION_DELETE"

	TypingStart DispatchName = "TYPING_START"

	UserUpdate              DispatchName = "USER_UPDATE"
	UserNoteUpdate          DispatchName = "USER_NOTE_UPDATE"
	UserSettingsUpdate      DispatchName = "USER_SETTINGS_UPDATE"
	UserGuildSettingsUpdate DispatchName = "USER_GUILD_SETTINGS_UPDATE"
	UserConnectionsUpdate   DispatchName = "USER_CONNECTIONS_UPDATE"
	UserRequiredActionUpdate DispatchName = "USER_REQUIRED_ACTION_UPDATE"

	VoiceChannelEffectSend DispatchName = "VOICE_CHANNEL_EFFECT_SEND"
	VoiceStateUpdate       DispatchName = "VOICE_STATE_UPDATE"
	VoiceServerUpdate      DispatchName = "VOICE_SERVER_UPDATE"

	WebhooksUpdate DispatchName = "WEBHOOKS_UPDATE"
)

// knownDispatchNames is the closed enumeration. Decode rejects anything outside it.
var knownDispatchNames = map[DispatchName]struct{}{
	Ready: {}, ReadySupplemental: {}, Resumed: {}, SessionsReplace: {},
	ApplicationCommandPermissionsUpdate: {},
	AutoModerationRuleCreate:            {},
	AutoModerationRuleUpdate:            {},
	AutoModerationRuleDelete:            {},
	AutoModerationActionExecution:       {},
	CallCreate: {}, CallUpdate: {}, CallDelete: {},
	ChannelCreate: {}, ChannelUpdate: {}, ChannelDelete: {},
	ChannelPinsUpdate: {}, ChannelRecipientAdd: {}, ChannelRecipientRemove: {},
	ThreadCreate: {}, ThreadUpdate: {}, ThreadDelete: {},
	ThreadListSync: {}, ThreadMemberUpdate: {}, ThreadMembersUpdate: {},
	EntitlementCreate: {}, EntitlementUpdate: {}, EntitlementDelete: {},
	GuildCreate: {}, GuildUpdate: {}, GuildDelete: {},
	GuildAuditLogEntryCreate: {}, GuildBanAdd: {}, GuildBanRemove: {},
	GuildEmojisUpdate: {}, GuildStickersUpdate: {}, GuildIntegrationsUpdate: {},
	GuildMemberAdd: {}, GuildMemberRemove: {}, GuildMemberUpdate: {}, GuildMembersChunk: {},
	GuildRoleCreate: {}, GuildRoleUpdate: {}, GuildRoleDelete: {},
	GuildScheduledEventCreate: {}, GuildScheduledEventUpdate: {}, GuildScheduledEventDelete: {},
	GuildScheduledEventUserAdd: {}, GuildScheduledEventUserRemove: {},
	GuildSoundboardSoundCreate: {}, GuildSoundboardSoundUpdate: {}, GuildSoundboardSoundDelete: {},
	GuildSoundboardSoundsUpdate: {}, SoundboardSounds: {},
	GuildApplicationCommandCountsUpdate: {},
	IntegrationCreate:                   {},
	IntegrationUpdate:                   {},
	IntegrationDelete:                   {},
	InteractionCreate:                   {},
	InviteCreate:                        {},
	InviteDelete:                        {},
	MessageCreate: {}, MessageUpdate: {}, MessageDelete: {}, MessageDeleteBulk: {}, MessageACK: {},
	MessageReactionAdd: {}, MessageReactionRemove: {}, MessageReactionRemoveAll: {}, MessageReactionRemoveEmoji: {},
	MessagePollVoteAdd: {}, MessagePollVoteRemove: {},
	PresenceUpdate: {}, RelationshipAdd: {}, RelationshipRemove: {},
	StageInstanceCreate: {}, StageInstanceUpdate: {}, StageInstanceDelete: {},
	SubscriptionCreate: {}, SubscriptionUpdate: {}, SubscriptionDelete: {},
	TypingStart: {},
	UserUpdate:  {}, UserNoteUpdate: {}, UserSettingsUpdate: {}, UserGuildSettingsUpdate: {},
	UserConnectionsUpdate: {}, UserRequiredActionUpdate: {},
	VoiceChannelEffectSend: {}, VoiceStateUpdate: {}, VoiceServerUpdate: {},
	WebhooksUpdate: {},
}

// ParseDispatchName resolves a wire string to its canonical dispatch name. Acceptance is whitespace-trimmed and
// case-insensitive because REST-side producers feed mixed-case names; the returned value is always canonical.
func ParseDispatchName(s string) (DispatchName, error) {
	name := DispatchName(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownDispatchNames[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDispatch, s)
	}
	return name, nil
}

// String returns the canonical SCREAMING_SNAKE_CASE form.
func (d DispatchName) String() string { return string(d) }

// Known reports whether the name is part of the closed enumeration.
func (d DispatchName) Known() bool {
	_, ok := knownDispatchNames[d]
	return ok
}

// DispatchNames returns every name in the closed enumeration, in unspecified order.
func DispatchNames() []DispatchName {
	names := make([]DispatchName, 0, len(knownDispatchNames))
	for name := range knownDispatchNames {
		names = append(names, name)
	}
	return names
}
