package content

// Difficulty-tiered vocabulary for word-sampled lessons.
var commonWords = map[string][]string{
	"easy": {
		"the", "be", "to", "of", "and", "a", "in", "that", "have", "I",
		"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
		"or", "an", "will", "my", "one", "all", "would", "there", "their", "what",
		"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
		"when", "make", "can", "like", "time", "no", "just", "him", "know", "take",
		"people", "into", "year", "your", "good", "some", "could", "them", "see", "other",
		"than", "then", "now", "look", "only", "come", "its", "over", "think", "also",
		"back", "after", "use", "two", "how", "our", "work", "first", "well", "way",
		"even", "new", "want", "because", "any", "these", "give", "day", "most", "us",
	},
	"medium": {
		"man", "world", "life", "hand", "part", "child", "eye", "woman", "place", "work",
		"week", "case", "point", "government", "company", "number", "group", "problem", "fact", "home",
		"water", "room", "mother", "area", "money", "story", "business", "night", "study", "book",
		"word", "issue", "side", "kind", "head", "house", "service", "friend", "father", "power",
		"hour", "game", "line", "end", "member", "law", "car", "city", "name", "team",
		"minute", "idea", "kid", "body", "information", "back", "parent", "face", "others", "level",
		"office", "door", "health", "person", "art", "war", "history", "party", "result", "change",
		"morning", "reason", "research", "girl", "guy", "moment", "air", "teacher", "force", "education",
	},
	"hard": {
		"question", "social", "program", "difference", "attention", "development", "experience", "family", "president", "community",
		"process", "important", "school", "system", "activity", "company", "example", "country", "control", "interest",
		"action", "position", "relationship", "environment", "performance", "opportunity", "responsibility", "technology", "knowledge", "communication",
		"understand", "available", "individual", "although", "situation", "direction", "statement", "remember", "possibility", "everything",
		"consider", "continue", "necessary", "especially", "international", "organization", "beautiful", "difficult", "particular", "management",
	},
}

var classicSentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Pack my box with five dozen liquor jugs.",
	"How vexingly quick daft zebras jump!",
	"The five boxing wizards jump quickly.",
	"Sphinx of black quartz, judge my vow.",
	"Two driven jocks help fax my big quiz.",
	"Five quacking zephyrs jolt my wax bed.",
	"The jay, pig, fox, zebra and my wolves quack!",
	"All good things must come to an end.",
	"Practice makes perfect.",
	"Actions speak louder than words.",
	"Knowledge is power.",
	"Time is money.",
	"Where there is a will, there is a way.",
	"Better late than never.",
	"Every cloud has a silver lining.",
	"Rome was not built in a day.",
	"The early bird catches the worm.",
	"When in Rome, do as the Romans do.",
	"No pain, no gain.",
	"A journey of a thousand miles begins with a single step.",
	"You cannot judge a book by its cover.",
	"Two heads are better than one.",
	"The pen is mightier than the sword.",
	"Fortune favors the bold.",
	"Honesty is the best policy.",
	"A friend in need is a friend indeed.",
	"Beauty is in the eye of the beholder.",
	"Curiosity killed the cat.",
	"The grass is always greener on the other side.",
}
