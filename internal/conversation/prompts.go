package conversation

const (
	promptPhoto         = "📸 Send a photo of the dish to add a recipe. Send !cancel to stop."
	promptPhotoAgain    = "I need a photo 📷. Send a picture of the dish, or !cancel to stop."
	promptTitle         = "✏️ Now send the name of the dish."
	promptTitleAgain    = "The name can't be empty. ✏️ Send the name of the dish."
	promptDescription   = "📝 Now send a short description of the dish."
	promptDescriptionTx = "Please send the description as text 📝."
	msgConflict         = "You already have a recipe in progress. Finish it or send !cancel first."
	msgCancelled        = "❌ Recipe submission cancelled."
	msgNothingToCancel  = "There is nothing to cancel."
	msgExpired          = "⌛ Your previous recipe submission timed out. Send !add to start again."
	msgSaveFailed       = "⚠️ Sorry, the recipe could not be saved. Send !add to try again."
	msgSaved            = "✅ Recipe #%d saved! Thanks, chef 👨‍🍳\n\n%s"
)
