package whisper

import (
	"fmt"
	"strings"
)

// Language is one entry of whisper's language table.
type Language struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Index is the language ID; order matches whisper.cpp's g_lang table.
var languages = [...]struct{ code, name string }{
	{"en", "english"},
	{"zh", "chinese"},
	{"de", "german"},
	{"es", "spanish"},
	{"ru", "russian"},
	{"ko", "korean"},
	{"fr", "french"},
	{"ja", "japanese"},
	{"pt", "portuguese"},
	{"tr", "turkish"},
	{"pl", "polish"},
	{"ca", "catalan"},
	{"nl", "dutch"},
	{"ar", "arabic"},
	{"sv", "swedish"},
	{"it", "italian"},
	{"id", "indonesian"},
	{"hi", "hindi"},
	{"fi", "finnish"},
	{"vi", "vietnamese"},
	{"he", "hebrew"},
	{"uk", "ukrainian"},
	{"el", "greek"},
	{"ms", "malay"},
	{"cs", "czech"},
	{"ro", "romanian"},
	{"da", "danish"},
	{"hu", "hungarian"},
	{"ta", "tamil"},
	{"no", "norwegian"},
	{"th", "thai"},
	{"ur", "urdu"},
	{"hr", "croatian"},
	{"bg", "bulgarian"},
	{"lt", "lithuanian"},
	{"la", "latin"},
	{"mi", "maori"},
	{"ml", "malayalam"},
	{"cy", "welsh"},
	{"sk", "slovak"},
	{"te", "telugu"},
	{"fa", "persian"},
	{"lv", "latvian"},
	{"bn", "bengali"},
	{"sr", "serbian"},
	{"az", "azerbaijani"},
	{"sl", "slovenian"},
	{"kn", "kannada"},
	{"et", "estonian"},
	{"mk", "macedonian"},
	{"br", "breton"},
	{"eu", "basque"},
	{"is", "icelandic"},
	{"hy", "armenian"},
	{"ne", "nepali"},
	{"mn", "mongolian"},
	{"bs", "bosnian"},
	{"kk", "kazakh"},
	{"sq", "albanian"},
	{"sw", "swahili"},
	{"gl", "galician"},
	{"mr", "marathi"},
	{"pa", "punjabi"},
	{"si", "sinhala"},
	{"km", "khmer"},
	{"sn", "shona"},
	{"yo", "yoruba"},
	{"so", "somali"},
	{"af", "afrikaans"},
	{"oc", "occitan"},
	{"ka", "georgian"},
	{"be", "belarusian"},
	{"tg", "tajik"},
	{"sd", "sindhi"},
	{"gu", "gujarati"},
	{"am", "amharic"},
	{"yi", "yiddish"},
	{"lo", "lao"},
	{"uz", "uzbek"},
	{"fo", "faroese"},
	{"ht", "haitian creole"},
	{"ps", "pashto"},
	{"tk", "turkmen"},
	{"nn", "nynorsk"},
	{"mt", "maltese"},
	{"sa", "sanskrit"},
	{"lb", "luxembourgish"},
	{"my", "myanmar"},
	{"bo", "tibetan"},
	{"tl", "tagalog"},
	{"mg", "malagasy"},
	{"as", "assamese"},
	{"tt", "tatar"},
	{"haw", "hawaiian"},
	{"ln", "lingala"},
	{"ha", "hausa"},
	{"ba", "bashkir"},
	{"jw", "javanese"},
	{"su", "sundanese"},
	{"yue", "cantonese"},
}

var langIndex = func() map[string]int {
	m := make(map[string]int, 2*len(languages))
	for id, l := range languages {
		m[l.code] = id
	}
	for id, l := range languages {
		if _, ok := m[l.name]; !ok {
			m[l.name] = id
		}
	}
	return m
}()

// LangMaxID returns the highest valid language ID.
func LangMaxID() int { return len(languages) - 1 }

// LangID maps a short code ("en") or full name ("english") to its ID.
func LangID(code string) (int, error) {
	if id, ok := langIndex[strings.ToLower(strings.TrimSpace(code))]; ok {
		return id, nil
	}
	return -1, fmt.Errorf("%w: unknown language %q", ErrInvalidArgument, code)
}

// LangStr returns the short code for id.
func LangStr(id int) (string, error) {
	if err := checkLangID(id); err != nil {
		return "", err
	}
	return languages[id].code, nil
}

// LangStrFull returns the english name for id.
func LangStrFull(id int) (string, error) {
	if err := checkLangID(id); err != nil {
		return "", err
	}
	return languages[id].name, nil
}

// Languages lists the full table ordered by ID.
func Languages() []Language {
	out := make([]Language, len(languages))
	for id, l := range languages {
		out[id] = Language{ID: id, Code: l.code, Name: l.name}
	}
	return out
}

func checkLangID(id int) error {
	if id < 0 || id > LangMaxID() {
		return fmt.Errorf("%w: language id %d not in [0, %d]", ErrOutOfRange, id, LangMaxID())
	}
	return nil
}
