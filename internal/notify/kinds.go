package notify

import (
	"fmt"
	"strings"

	"voxnote/internal/audio"
	"voxnote/internal/config"
)

// Kind is the category of a notification sound.
type Kind string

const (
	KindTaskComplete Kind = "task-complete"
	KindSuccess      Kind = "completion-success"
	KindError        Kind = "completion-error"
	KindLongProcess  Kind = "long-process"
	KindActivated    Kind = "activated"
)

// Kinds lists the kinds stored as {kind}_{profile}.wav.
var Kinds = []Kind{KindTaskComplete, KindSuccess, KindError, KindLongProcess}

// Ambient clips are shared by all profiles.
const (
	NightClip    = "night.wav"
	randomPrefix = "random-"
)

var RandomClips = []string{"random-1.wav", "random-2.wav", "random-3.wav"}

const taskCompletePrefix = string(KindTaskComplete) + "_"

// FileName maps a kind and voice profile to its asset file.
func FileName(kind Kind, profile string) string {
	if kind == KindActivated {
		return fmt.Sprintf("activated-%s.wav", profile)
	}
	return fmt.Sprintf("%s_%s.wav", kind, profile)
}

// ExpectedFiles lists every clip worth preloading from dir: all kinds for all
// profiles, the ambient clips and any extra task-complete variants found on disk.
func ExpectedFiles(dir string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, profile := range config.Profiles {
		for _, kind := range Kinds {
			add(FileName(kind, profile))
		}
		add(FileName(KindActivated, profile))
	}
	add(NightClip)
	for _, name := range RandomClips {
		add(name)
	}

	extra, err := audio.Scan(dir, taskCompletePrefix)
	if err == nil {
		for _, name := range extra {
			add(name)
		}
	}
	return names
}

func isTaskComplete(name string) bool {
	return strings.HasPrefix(name, taskCompletePrefix)
}

// Phrases are the spoken texts per kind and profile. They double as the
// placeholder text when a clip cannot be played.
var Phrases = map[Kind]map[string]string{
	KindSuccess: {
		"zundamon": "お疲れさまなのだ！",
		"metan":    "お疲れさまでした♪",
		"tsumugi":  "お疲れさまです〜",
		"kiritan":  "お疲れさまでした〜",
	},
	KindError: {
		"zundamon": "エラーが発生したのだ！",
		"metan":    "あらあら、エラーですね",
		"tsumugi":  "エラーが出ちゃいました〜",
		"kiritan":  "エラーが起きてしまいました",
	},
	KindLongProcess: {
		"zundamon": "もう少し待つのだ〜",
		"metan":    "もう少しお待ちくださいね",
		"tsumugi":  "もうちょっと待ってください〜",
		"kiritan":  "もう少しお待ちください〜",
	},
	KindTaskComplete: {
		"zundamon": "タスク完了なのだ！",
		"metan":    "タスクが完了しましたよ♪",
		"tsumugi":  "タスク完了です〜！",
		"kiritan":  "タスクが完了しました〜",
	},
	KindActivated: {
		"zundamon": "ずんだもん、準備完了なのだ！",
		"metan":    "準備ができましたよ♪",
		"tsumugi":  "準備できました〜",
		"kiritan":  "準備が整いました〜",
	},
}

// AmbientPhrases are spoken by the default profile.
var AmbientPhrases = map[string]string{
	"random-1.wav": "がんばってるのだ？",
	"random-2.wav": "ちょっと休憩するのだ〜",
	"random-3.wav": "いい調子なのだ！",
	NightClip:      "もう夜中なのだ。そろそろ寝るのだ〜",
}

// Phrase returns the text for kind in profile, falling back to the default
// profile and then to the kind itself.
func Phrase(kind Kind, profile string) string {
	if byProfile, ok := Phrases[kind]; ok {
		if p, ok := byProfile[profile]; ok {
			return p
		}
		if p, ok := byProfile[config.DefaultProfile]; ok {
			return p
		}
	}
	return string(kind)
}
