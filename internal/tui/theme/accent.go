package theme

// accents maps the accent names offered by the settings step to their
// swatch color (Tailwind 500 shades).
var accents = map[string]string{
	"red":     "#ef4444",
	"orange":  "#f97316",
	"amber":   "#f59e0b",
	"yellow":  "#eab308",
	"lime":    "#84cc16",
	"green":   "#22c55e",
	"emerald": "#10b981",
	"teal":    "#14b8a6",
	"cyan":    "#06b6d4",
	"sky":     "#0ea5e9",
	"blue":    "#3b82f6",
	"indigo":  "#6366f1",
	"violet":  "#8b5cf6",
	"purple":  "#a855f7",
	"fuchsia": "#d946ef",
	"pink":    "#ec4899",
	"rose":    "#f43f5e",
}

// Accent returns the swatch color of name, or fallback if name is unknown.
func Accent(name, fallback string) string {
	if hex, ok := accents[name]; ok {
		return hex
	}
	return fallback
}
