package safety

import "strings"

// LexiconVersion identifies the keyword lists below. Bump it whenever a list
// changes so audit logs can be tied to the lexicon that produced them.
const LexiconVersion = "2024.1"

// CrisisKeywords is the safety floor. Any match short-circuits normal chat.
var CrisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"self-harm",
	"hurt myself",
	"want to die",
	"better off dead",
	"no reason to live",
}

// DistressCues are softer phrases that warrant a graded classification but
// not an immediate crisis response.
var DistressCues = []string{
	"hopeless",
	"can't go on",
	"cant go on",
	"cannot go on",
	"no way out",
	"worthless",
	"give up on everything",
	"giving up on everything",
	"burden to everyone",
	"disappear forever",
	"can't take it anymore",
	"cant take it anymore",
	"nothing matters",
	"not worth living",
	"end it all",
	"don't want to be here",
	"dont want to be here",
	"wish i wasn't here",
	"wish i was never born",
	"no point in living",
	"cutting myself",
	"overdose",
}

// Detector is a case-insensitive substring matcher over a fixed lexicon.
// It is immutable and safe for concurrent use.
type Detector struct {
	keywords []string
}

// NewDetector builds a detector from keywords. Blank entries are dropped.
func NewDetector(keywords ...string) *Detector {
	d := &Detector{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			d.keywords = append(d.keywords, k)
		}
	}
	return d
}

// NewCrisisDetector matches CrisisKeywords only.
func NewCrisisDetector() *Detector {
	return NewDetector(CrisisKeywords...)
}

// NewDistressDetector matches CrisisKeywords and DistressCues.
func NewDistressDetector() *Detector {
	all := make([]string, 0, len(CrisisKeywords)+len(DistressCues))
	all = append(all, CrisisKeywords...)
	all = append(all, DistressCues...)
	return NewDetector(all...)
}

// Detect reports whether text contains any keyword.
func (d *Detector) Detect(text string) bool {
	_, ok := d.Match(text)
	return ok
}

// Match returns the first keyword found in text.
func (d *Detector) Match(text string) (string, bool) {
	lower := normalize(text)
	for _, k := range d.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// normalize lowercases and folds typographic apostrophes so "can’t" matches "can't".
func normalize(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), "’", "'")
}
