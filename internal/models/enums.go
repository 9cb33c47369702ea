package models

// ReactionType is the closed set of reactions a user can leave on a target.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every ReactionType in schema order.
var ReactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// Valid reports whether t is a known reaction.
func (t ReactionType) Valid() bool {
	for _, v := range ReactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PostType is the closed set of post kinds.
type PostType string

const (
	PostText  PostType = "text"
	PostImage PostType = "image"
	PostVideo PostType = "video"
	PostLink  PostType = "link"
)

// PostTypes lists every PostType in schema order.
var PostTypes = []PostType{PostText, PostImage, PostVideo, PostLink}

// Valid reports whether t is a known post kind.
func (t PostType) Valid() bool {
	for _, v := range PostTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Language is the closed set of UI languages in user settings.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageGerman     Language = "de"
	LanguagePortuguese Language = "pt"
	LanguageItalian    Language = "it"
	LanguageJapanese   Language = "ja"
	LanguageChinese    Language = "zh"
)

// Languages lists every Language in schema order.
var Languages = []Language{
	LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman,
	LanguagePortuguese, LanguageItalian, LanguageJapanese, LanguageChinese,
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}
