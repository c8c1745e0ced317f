package emotion

// moods maps each emotion to the word used to bias song searches.
var moods = map[Label]string{
	Happy:     "upbeat",
	Sad:       "melancholic",
	Angry:     "intense",
	Neutral:   "calm",
	Surprised: "energetic",
}

// ToMood returns the music mood for an emotion label. Unknown labels map to
// the empty string so new labels degrade to an unbiased search.
func ToMood(label string) string {
	return moods[Label(label)]
}
