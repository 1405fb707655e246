package models

// User is a chat user known to the bot
type User struct {
	ID       string `bson:"_id" json:"id"`
	Username string `bson:"username" json:"username"`
	ChatID   string `bson:"chat_id" json:"chat_id"`
	ChatSub  bool   `bson:"chat_sub" json:"chat_sub"`
	DailySub bool   `bson:"daily_sub" json:"daily_sub"`
}

// Handle returns the username or a placeholder when it is empty
func (u *User) Handle() string {
	if u.Username == "" {
		return "user"
	}
	return u.Username
}
