package emoji

// shortcodes is the fixed table of ":name:" codes recognized in text.
var shortcodes = map[string]string{
	"+1":                       "\U0001F44D",
	"-1":                       "\U0001F44E",
	"100":                      "\U0001F4AF",
	"bell":                     "\U0001F514",
	"book":                     "\U0001F4D6",
	"bug":                      "\U0001F41B",
	"bulb":                     "\U0001F4A1",
	"calendar":                 "\U0001F4C5",
	"chart_with_upwards_trend": "\U0001F4C8",
	"check":                    "✔️",
	"clap":                     "\U0001F44F",
	"clipboard":                "\U0001F4CB",
	"coffee":                   "☕",
	"computer":                 "\U0001F4BB",
	"construction":             "\U0001F6A7",
	"email":                    "\U0001F4E7",
	"exclamation":              "❗",
	"eyes":                     "\U0001F440",
	"fire":                     "\U0001F525",
	"gear":                     "⚙️",
	"grinning":                 "\U0001F600",
	"hammer":                   "\U0001F528",
	"heart":                    "❤️",
	"heavy_check_mark":         "✔️",
	"hourglass":                "⌛",
	"information_source":       "ℹ️",
	"key":                      "\U0001F511",
	"laughing":                 "\U0001F606",
	"link":                     "\U0001F517",
	"lock":                     "\U0001F512",
	"mag":                      "\U0001F50D",
	"mega":                     "\U0001F4E3",
	"memo":                     "\U0001F4DD",
	"muscle":                   "\U0001F4AA",
	"no_entry":                 "⛔",
	"package":                  "\U0001F4E6",
	"pray":                     "\U0001F64F",
	"pushpin":                  "\U0001F4CC",
	"question":                 "❓",
	"rocket":                   "\U0001F680",
	"smile":                    "\U0001F604",
	"sparkles":                 "✨",
	"star":                     "⭐",
	"stop_sign":                "\U0001F6D1",
	"sunglasses":               "\U0001F60E",
	"tada":                     "\U0001F389",
	"thinking":                 "\U0001F914",
	"thumbsdown":               "\U0001F44E",
	"thumbsup":                 "\U0001F44D",
	"trophy":                   "\U0001F3C6",
	"warning":                  "⚠️",
	"wave":                     "\U0001F44B",
	"white_check_mark":         "✅",
	"wink":                     "\U0001F609",
	"wrench":                   "\U0001F527",
	"x":                        "❌",
	"zap":                      "⚡",
}

// Lookup returns the emoji for a shortcode name given without colons.
func Lookup(name string) (string, bool) {
	glyph, ok := shortcodes[name]
	return glyph, ok
}
