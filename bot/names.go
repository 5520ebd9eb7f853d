package bot

// BotNames maps each difficulty to the display name shown to players.
var BotNames = map[BotDifficulty]string{
	DifficultyEasy:       "Alice",
	DifficultyMedium:     "Bob",
	DifficultyHard:       "Charles",
	DifficultyImpossible: "Diana",
}

func GetBotName(difficulty BotDifficulty) string {
	if name, ok := BotNames[difficulty]; ok {
		return name
	}
	return "BOT"
}

// IsBotName reports whether a username collides with a reserved bot
// name. Signup rejects these so human accounts never impersonate a bot.
func IsBotName(username string) bool {
	if username == "BOT" {
		return true
	}
	for _, name := range BotNames {
		if username == name {
			return true
		}
	}
	return false
}
