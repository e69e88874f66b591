package detect

import (
	"path/filepath"
	"regexp"
	"strings"
)

var generatedCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`function\s+\w+\s*\([^)]*\)\s*\{`),
	regexp.MustCompile(`class\s+\w+\s*\{`),
	regexp.MustCompile(`const\s+\w+\s*=\s*\([^)]*\)\s*=>`),
	regexp.MustCompile(`if\s*\([^)]+\)\s*\{[\s\S]*\}`),
	regexp.MustCompile(`for\s*\([^)]+\)\s*\{[\s\S]*\}`),
	regexp.MustCompile(`try\s*\{[\s\S]*\}\s*catch`),
}

var explanationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^/\*\*[\s\S]*\*/$`),
	regexp.MustCompile(`(?i)^//.*explanation`),
	regexp.MustCompile(`(?i)^#.*explanation`),
	regexp.MustCompile(`(?i)This.*function.*does`),
	regexp.MustCompile(`(?i)The.*following.*code`),
}

var manualEditPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-zA-Z]$`),
	regexp.MustCompile(`^[a-zA-Z]+$`),
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`^\s+$`),
	regexp.MustCompile(`^[a-zA-Z\s]{1,10}$`),
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// LooksLikeGeneratedCode reports whether text contains typical generated code
// shapes: function/class definitions, arrow functions, blocks.
func LooksLikeGeneratedCode(text string) bool {
	return matchAny(generatedCodePatterns, text)
}

// LooksLikeExplanation reports doc-comment or prose explanation shapes.
func LooksLikeExplanation(text string) bool {
	return matchAny(explanationPatterns, text)
}

func looksTyped(text string) bool {
	return matchAny(manualEditPatterns, strings.TrimSpace(text))
}

// Document identifies the file an event refers to.
type Document struct {
	URI      string
	Scheme   string
	FileName string
}

var settingsFiles = []string{"settings.json", "keybindings.json", "tasks.json", "launch.json"}

// IsSettingsFile reports editor settings and config documents, which never count
// as assistant activity.
func IsSettingsFile(doc Document) bool {
	if doc.Scheme == "vscode-userdata" {
		return true
	}
	for _, name := range settingsFiles {
		if strings.Contains(doc.FileName, name) {
			return true
		}
	}
	return false
}

// IsIgnoredPath reports documents that are never analysed for insertions.
func IsIgnoredPath(doc Document) bool {
	if doc.Scheme != "" && doc.Scheme != "file" {
		return true
	}
	name := filepath.ToSlash(doc.FileName)
	return strings.Contains(name, ".git") ||
		strings.Contains(name, "node_modules") ||
		strings.Contains(name, ".vscode")
}

func (d Document) key() string {
	if d.URI != "" {
		return d.URI
	}
	return d.FileName
}
