package consts

import "time"

// Settings keys shared by every backend
const (
	KeyWelcomeMessage = "welcome_message"
	KeyStoreChannels  = "store_channels"
	KeyCustomCaption  = "custom_caption"
	KeyCustomButtons  = "custom_buttons"
	KeyGroupLink      = "group_link"
	KeyShortener      = "shortener"
	KeyFiles          = "files"
	KeyBatches        = "batches"
	KeyRequests       = "requests"
	KeyClonedBots     = "cloned_bots"
	KeyKnownUsers     = "known_users"
)

// Ingestion limits
const (
	MaxFileSizeBytes  = 2 << 30 // Telegram bot upload ceiling
	MaxCaptionLength  = 4096
	MaxInlineButtons  = 10
	TruncationMarker  = "…"
	VerificationGrant = time.Hour
)

// Deep-link payload prefixes
const (
	LinkPrefixFile    = "file"
	LinkPrefixBatch   = "batch"
	LinkPrefixRequest = "request"
)

// Caption placeholders recognized by the template formatter
const (
	PlaceholderFilename = "{filename}"
	PlaceholderDate     = "{date}"
	PlaceholderSize     = "{size}"
	PlaceholderFileID   = "{file_id}"
	PlaceholderUserID   = "{user_id}"
	PlaceholderFileLink = "{file_link}"
)

// Button labels
const (
	ButtonRetrieve  = "📥 Retrieve"
	ButtonDelete    = "🗑 Delete"
	ButtonApprove   = "✅ Approve"
	ButtonDeny      = "🚫 Deny"
	ButtonCancel    = "❌ Cancel"
	ButtonDone      = "✅ Done"
	ButtonSettings  = "⚙️ Settings"
	ButtonSearch    = "🔍 Search"
	ButtonClone     = "🤖 Create Clone Bot"
	ButtonClones    = "🤖 View Clone Bots"
	ButtonBroadcast = "📢 Broadcast"
	ButtonBatch     = "📦 Batch"
	ButtonTutorial  = "📖 Tutorial"

	ButtonVisibilityPublic  = "🌐 Public"
	ButtonVisibilityPrivate = "🔒 Private"
	ButtonUsageGeneral      = "🧰 General"
	ButtonUsageFileStore    = "📦 File Store"
)

// User-facing messages
const (
	MsgWelcomeDefault  = "👋 Welcome to the Cloner Bot! 📦\nSend me files to store, and use /genlink or /batch to create shareable links! 🔗"
	MsgAdminsOnly      = "🚫 Admins only!"
	MsgMainBotOnly     = "🚫 Main bot only!"
	MsgPrivateClone    = "🚫 This is a private bot. Ask the owner for access."
	MsgNotFound        = "⚠️ File not found! It may have been deleted! 😅"
	MsgBatchNotFound   = "⚠️ Batch not found! It may have been deleted! 😅"
	MsgNoStoreChannel  = "⚠️ File store channel not configured! Contact the admin! 😅"
	MsgFileTooLarge    = "⚠️ File is too large! The limit is 2 GB. 😅"
	MsgUnsupportedFile = "⚠️ Unsupported file type! Send a document, photo, video, or audio! 😅"
	MsgRelayFailed     = "⚠️ Failed to store file! Try again! 😅"
	MsgMetadataWarn    = "⚠️ File stored, but indexing failed. It will not show up in search."
	MsgRequestSent     = "✅ Your request has been sent to the admins! 🎉"
	MsgRequestDenied   = "🚫 Your request was denied by the admins."
	MsgRequestApproved = "✅ Your request was approved! Here is your file. 📦"
	MsgRequestNoMatch  = "⚠️ Your request was approved but the file could not be found. 😅"
	MsgBroadcastUsage  = "Usage: /broadcast <message>"
	MsgDefaultCaption  = "📦 Stored file"

	MsgCloneAskToken     = "🤖 Send the Telegram Bot Token for the new cloned bot! 🔑"
	MsgCloneBadFormat    = "⚠️ That does not look like a bot token. Expected format: 123456:ABC-DEF..."
	MsgCloneBadToken     = "⚠️ Token invalid or revoked! Get a fresh one from @BotFather. 😅"
	MsgCloneNetFailure   = "⚠️ Could not reach Telegram to verify the token. Try again! 😅"
	MsgCloneDuplicate    = "⚠️ This bot token is already added! Try a different one! 😅"
	MsgCloneStarted      = "✅ Cloned bot added and started! 🎉"
	MsgCloneStartFailure = "⚠️ Cloned bot added but failed to start! Check the token! 😅"
)
