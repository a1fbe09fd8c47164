package chat

import (
	"strings"
	"unicode"
)

// Tone is the voice a caption is written in.
type Tone string

const (
	ToneFunny        Tone = "Funny"
	ToneProfessional Tone = "Professional"
	TonePoetic       Tone = "Poetic"
	ToneInstagram    Tone = "Instagram Style"
	ToneMotivational Tone = "Motivational"
	ToneMinimal      Tone = "Minimal"
	ToneSales        Tone = "Sales"
	ToneStorytelling Tone = "Storytelling"
	ToneCritical     Tone = "Critical"
	ToneFriendly     Tone = "Friendly"
	ToneDramatic     Tone = "Dramatic"
	ToneUrgent       Tone = "Urgent"
)

var Tones = []Tone{
	ToneFunny, ToneProfessional, TonePoetic, ToneInstagram, ToneMotivational, ToneMinimal,
	ToneSales, ToneStorytelling, ToneCritical, ToneFriendly, ToneDramatic, ToneUrgent,
}

// Platform is where the caption will be posted.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTwitter   Platform = "Twitter / X"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformTelegram  Platform = "Telegram"
	PlatformYouTube   Platform = "YouTube"
	PlatformTikTok    Platform = "TikTok"
	PlatformWebsite   Platform = "Website / Blog"
	PlatformThreads   Platform = "Threads"
	PlatformPinterest Platform = "Pinterest"
)

var Platforms = []Platform{
	PlatformInstagram, PlatformTwitter, PlatformLinkedIn, PlatformTelegram, PlatformYouTube,
	PlatformTikTok, PlatformWebsite, PlatformThreads, PlatformPinterest,
}

// Language is the main output language.
type Language string

const (
	LanguagePersian Language = "Persian"
	LanguageEnglish Language = "English"
	LanguageArabic  Language = "Arabic"
	LanguageTurkish Language = "Turkish"
	LanguageGerman  Language = "German"
	LanguageFrench  Language = "French"
	LanguageSpanish Language = "Spanish"
	LanguageChinese Language = "Chinese"
)

var Languages = []Language{
	LanguagePersian, LanguageEnglish, LanguageArabic, LanguageTurkish,
	LanguageGerman, LanguageFrench, LanguageSpanish, LanguageChinese,
}

// TextLength is the target caption length.
type TextLength string

const (
	LengthShort    TextLength = "Short (1-2 lines)"
	LengthMedium   TextLength = "Medium (1 paragraph)"
	LengthLong     TextLength = "Long (blog post)"
	LengthVeryLong TextLength = "Very long (article)"
	LengthThread   TextLength = "Twitter thread"
)

var TextLengths = []TextLength{LengthShort, LengthMedium, LengthLong, LengthVeryLong, LengthThread}

// EmojiDensity controls how many emoji the caption carries.
type EmojiDensity string

const (
	EmojiNone     EmojiDensity = "No emoji"
	EmojiMinimal  EmojiDensity = "Minimal (end of sentences)"
	EmojiStandard EmojiDensity = "Standard"
	EmojiHigh     EmojiDensity = "High (colorful)"
	EmojiOverload EmojiDensity = "Overload"
)

var EmojiDensities = []EmojiDensity{EmojiNone, EmojiMinimal, EmojiStandard, EmojiHigh, EmojiOverload}

// CallToAction is the closing ask of a caption.
type CallToAction string

const (
	CTANone        CallToAction = "None"
	CTALikeComment CallToAction = "Like and comment"
	CTASaveShare   CallToAction = "Save and share"
	CTALinkInBio   CallToAction = "Link in bio"
	CTABuyNow      CallToAction = "Buy now"
	CTASignUp      CallToAction = "Sign up"
	CTADMMe        CallToAction = "DM me"
	CTASubscribe   CallToAction = "Subscribe"
)

var CallsToAction = []CallToAction{
	CTANone, CTALikeComment, CTASaveShare, CTALinkInBio, CTABuyNow, CTASignUp, CTADMMe, CTASubscribe,
}

// ImageStyle is appended to image prompts unless it is StyleNone.
type ImageStyle string

const (
	StyleNone           ImageStyle = "None"
	StyleCinematic      ImageStyle = "Cinematic"
	StyleAnime          ImageStyle = "Anime"
	StylePhotorealistic ImageStyle = "Photorealistic"
	StyleCyberpunk      ImageStyle = "Cyberpunk"
	StyleWatercolor     ImageStyle = "Watercolor"
	StyleSketch         ImageStyle = "Sketch"
	StylePixelArt       ImageStyle = "Pixel Art"
	StyleNeon           ImageStyle = "Neon"
	StyleIsometric      ImageStyle = "Isometric"
	StyleOilPainting    ImageStyle = "Oil Painting"
	Style3DRender       ImageStyle = "3D Render"
	StyleVintage        ImageStyle = "Vintage"
	StyleLowPoly        ImageStyle = "Low Poly"
	StyleClaymation     ImageStyle = "Claymation"
	StyleMinimalist     ImageStyle = "Minimalist"
	StyleSurreal        ImageStyle = "Surreal"
)

var ImageStyles = []ImageStyle{
	StyleNone, StyleCinematic, StyleAnime, StylePhotorealistic, StyleCyberpunk, StyleWatercolor,
	StyleSketch, StylePixelArt, StyleNeon, StyleIsometric, StyleOilPainting, Style3DRender,
	StyleVintage, StyleLowPoly, StyleClaymation, StyleMinimalist, StyleSurreal,
}

func ParseTone(s string) (Tone, error) {
	return parseEnum("tone", s, Tones)
}

func ParsePlatform(s string) (Platform, error) {
	return parseEnum("platform", s, Platforms)
}

func ParseLanguage(s string) (Language, error) {
	return parseEnum("language", s, Languages)
}

func ParseTextLength(s string) (TextLength, error) {
	return parseEnum("length", s, TextLengths)
}

func ParseEmojiDensity(s string) (EmojiDensity, error) {
	return parseEnum("emoji density", s, EmojiDensities)
}

func ParseCallToAction(s string) (CallToAction, error) {
	return parseEnum("call to action", s, CallsToAction)
}

func ParseImageStyle(s string) (ImageStyle, error) {
	return parseEnum("image style", s, ImageStyles)
}

// parseEnum matches s against values ignoring case, spaces and punctuation.
// A value also answers to its leading name, the part before " (" or " /",
// so "short" selects "Short (1-2 lines)" and "twitter" selects "Twitter / X".
func parseEnum[T ~string](kind, s string, values []T) (T, error) {
	want := slug(s)
	if want != "" {
		for _, v := range values {
			if slug(string(v)) == want || slug(leadingName(string(v))) == want {
				return v, nil
			}
		}
	}
	var zero T
	return zero, invalidRequest("unknown %s %q", kind, s)
}

func leadingName(s string) string {
	if i := strings.IndexAny(s, "(/"); i > 0 {
		return s[:i]
	}
	return s
}

func slug(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
