package prompt

import "fmt"

// Mode selects the prompt template. The three presets differ in how much
// detail they ask for; ModeCustom uses a user supplied template.
type Mode int

const (
	ModeTitle Mode = iota
	ModeSummary
	ModeDetailed
	ModeCustom
)

var modeNames = [...]string{
	ModeTitle:    "title",
	ModeSummary:  "summary",
	ModeDetailed: "detailed",
	ModeCustom:   "custom",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ModeNames lists the accepted mode names in preset order.
func ModeNames() []string {
	return modeNames[:]
}

// ParseMode maps a configured name to a Mode. An empty name means ModeTitle;
// anything unrecognized is an error rather than a silent default.
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return ModeTitle, nil
	}
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown prompt mode %q (use one of %v)", name, modeNames)
}

// Template returns the template for m. custom is only consulted for
// ModeCustom and falls back to the title preset when empty.
func Template(m Mode, custom string) string {
	switch m {
	case ModeTitle:
		return titleTemplate
	case ModeSummary:
		return summaryTemplate
	case ModeDetailed:
		return detailedTemplate
	case ModeCustom:
		if custom == "" {
			return titleTemplate
		}
		return custom
	default:
		panic(fmt.Sprintf("prompt: unhandled mode %d", int(m)))
	}
}

const preamble = "" +
	"You are an AI programming assistant, helping a software developer to come with the best git commit message for their code changes.\n" +
	"You excel in interpreting the purpose behind code changes to craft succinct, clear commit messages.\n\n" +
	"Branch: {branch}\n\n" +
	"Staged files:\n{files}\n\n" +
	"Staged diff:\n```diff\n{diff}\n```\n\n"

const titleTemplate = preamble +
	"Write a single-line commit message in {lang} following the Conventional Commits format (e.g. 'feat: add spinner').\n" +
	"Only output the commit message. No explanations, no quotes, no markdown."

const summaryTemplate = preamble +
	"Write a commit message in {lang} following the Conventional Commits format.\n" +
	"First line: a concise title.\n" +
	"Then a blank line, then a short bullet list summarizing the change per module or area.\n" +
	"Only output the commit message. No explanations, no markdown code fences."

const detailedTemplate = preamble +
	"Write a commit message in {lang} following the Conventional Commits format.\n" +
	"First line: a concise title.\n" +
	"Then a blank line, then one bullet per changed file describing what changed in it and why.\n" +
	"Only output the commit message. No explanations, no markdown code fences."
