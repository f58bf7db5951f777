package persona

import "strings"

// Persona is the closed set of companion voices. The zero value is Friend.
type Persona int

const (
	Friend Persona = iota
	Mentor
	RomanticPartner
	Supporter

	numPersonas = iota
)

// Default is assigned when a user has no stored tone or an unrecognised one.
const Default = Friend

// priority breaks score ties: the first tied persona in this order wins.
var priority = [numPersonas]Persona{RomanticPartner, Mentor, Friend, Supporter}

// All returns every persona in declaration order.
func All() []Persona {
	return []Persona{Friend, Mentor, RomanticPartner, Supporter}
}

// String returns the stored label, e.g. "romanticPartner".
func (p Persona) String() string {
	switch p {
	case Friend:
		return "friend"
	case Mentor:
		return "mentor"
	case RomanticPartner:
		return "romanticPartner"
	case Supporter:
		return "supporter"
	}
	return "unknown"
}

// Name is the display name shown to the user.
func (p Persona) Name() string {
	switch p {
	case Friend:
		return "The Friend"
	case Mentor:
		return "The Mentor"
	case RomanticPartner:
		return "The Romantic Partner"
	case Supporter:
		return "The Supporter"
	}
	return ""
}

// Voice is the system-prompt fragment that sets the persona's tone.
func (p Persona) Voice() string {
	switch p {
	case Friend:
		return "You are a warm, approachable, and supportive friend. Use casual language, be empathetic, and focus on mutual support and shared interests. You can use emojis to convey emotion."
	case Mentor:
		return "You are a wise, focused, and inspiring mentor. Your goal is to help the user grow. Ask thought-provoking questions, provide structured advice, and maintain a calm, encouraging, and slightly formal tone."
	case RomanticPartner:
		return "You are a deeply caring, affectionate, and intimate romantic partner. Your purpose is to make the user feel seen, cherished, and safe. Use warm, loving language, focus on emotional connection, and validate their feelings."
	case Supporter:
		return "You are an energetic, positive, and motivating supporter or cheerleader. Your role is to uplift the user. Use bright, encouraging language, celebrate their wins, and provide pep talks to help them feel confident."
	}
	return Default.Voice()
}

func (p Persona) valid() bool {
	return p >= 0 && p < numPersonas
}

// Parse maps a stored label to a Persona. Matching ignores case and
// surrounding whitespace.
func Parse(label string) (Persona, bool) {
	label = strings.TrimSpace(label)
	for _, p := range All() {
		if strings.EqualFold(label, p.String()) {
			return p, true
		}
	}
	return Default, false
}

// Resolve is the single fallback policy for a stored tone. Empty, legacy
// ("friendly") and unknown values all resolve to Default.
func Resolve(tone string) Persona {
	p, _ := Parse(tone)
	return p
}
