package models

import "strings"

// Style is a writing-style tag applied to the next generated reply.
type Style string

const (
	StylePoem      Style = "poem"
	StyleArticle   Style = "article"
	StyleAcademic  Style = "academic"
	StyleStory     Style = "story"
	StyleComedy    Style = "comedy"
	StyleScript    Style = "script"
	StyleFairytale Style = "fairytale"
	StyleLetter    Style = "letter"
	StyleSonnet    Style = "sonnet"
	StyleHaiku     Style = "haiku"

	DefaultStyle = StyleArticle
)

// Styles lists every style in display order.
var Styles = []Style{
	StylePoem, StyleArticle, StyleAcademic, StyleStory, StyleComedy,
	StyleScript, StyleFairytale, StyleLetter, StyleSonnet, StyleHaiku,
}

var styleDescriptions = map[Style]string{
	StylePoem:      "a poetic form with rhythmic language and vivid imagery",
	StyleArticle:   "a journalistic article with clear paragraphs and an informative tone",
	StyleAcademic:  "an academic paper with formal language and structured arguments",
	StyleStory:     "a short story with narrative elements, characters, and plot",
	StyleComedy:    "a humorous piece with jokes and lighthearted tone",
	StyleScript:    "a screenplay/dialogue format with character names and stage directions",
	StyleFairytale: "a whimsical fairytale with magical elements and folkloric style",
	StyleLetter:    "a personal or formal letter with appropriate greetings and closings",
	StyleSonnet:    "a 14-line poetic form following a specific rhyme scheme",
	StyleHaiku:     "a three-line Japanese poetry format (5-7-5 syllables)",
}

// Description is the long-form instruction used when prompting the model.
func (s Style) Description() string {
	if d, ok := styleDescriptions[s]; ok {
		return d
	}
	return "a creative piece"
}

// Label is the capitalised display name.
func (s Style) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Style) Valid() bool {
	_, ok := styleDescriptions[s]
	return ok
}

// ParseStyle normalises user input into a known style.
func ParseStyle(raw string) (Style, bool) {
	s := Style(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}
