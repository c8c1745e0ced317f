// Command moodtunes runs the MoodTunes web application: it reads the
// visitor's emotion from a webcam frame and suggests matching songs.
package main

func main() {
	Execute()
}
