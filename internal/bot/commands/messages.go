package commands

const (
	msgWelcome = "👋 Welcome to CookNet, %s!\n\n" +
		"Share your dishes with other home cooks and find something to cook tonight.\n" +
		"Send %sadd to publish a recipe or %shelp to see everything I can do."
	msgNoRecipes     = "No recipes yet. Be the first: send !add 🍳"
	msgTopHeading    = "🏆 Top recipes"
	msgRecentHeading = "🆕 Latest recipes"
	msgMineHeading   = "📒 Your recipes"
	msgNoMine        = "You haven't published any recipes yet. Send !add to share one."
	msgRecipeUsage   = "Usage: !recipe <number>"
	msgRecipeMissing = "Recipe #%d does not exist."
	msgLoadFailed    = "⚠️ Sorry, recipes could not be loaded right now."
	msgLiked         = "❤️ Thanks! \"%s\" now has %d likes."
	msgLikeMissing   = "That recipe no longer exists."
	msgLikeFailed    = "⚠️ Your like could not be saved. Try again later."

	msgChatUsage      = "Usage: !chat <message> or !chat on|off"
	msgChatOn         = "💬 You joined the community chat. Send !chat <message> to talk."
	msgChatOff        = "🔕 You left the community chat."
	msgChatRelay      = "👤 @%s:\n%s"
	msgChatSent       = "📨 Sent to %d cooks."
	msgChatFailed     = "⚠️ Your message could not be sent."
	msgHistoryEmpty   = "No chat messages yet."
	msgHistoryHeading = "💬 Recent chat"
	msgSettingsFailed = "⚠️ Your settings could not be saved."

	msgDailyOn     = "📅 You will get a recipe every day."
	msgDailyOff    = "📅 Daily recipes turned off."
	msgDailyStatus = "📅 Daily recipes are %s. Send !daily on or !daily off to change."
)
